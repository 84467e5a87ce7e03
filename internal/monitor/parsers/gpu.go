// Package parsers turns the text output of GPU and kernel tools into values.
// It has no dependency on the monitor package so the sources there can use it.
package parsers

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// NvidiaQueryArgs are the nvidia-smi arguments ParseNvidiaSMI expects.
var NvidiaQueryArgs = []string{
	"--query-gpu=index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw",
	"--format=csv,noheader,nounits",
}

// NvidiaComputeAppsArgs are the nvidia-smi arguments ParseNvidiaComputePIDs expects.
var NvidiaComputeAppsArgs = []string{
	"--query-compute-apps=pid",
	"--format=csv,noheader,nounits",
}

// NvidiaGPU is one device row of nvidia-smi output.
type NvidiaGPU struct {
	Index       int
	Name        string
	Utilization float64
	MemoryUsed  int64
	MemoryTotal int64
	Temperature int
	PowerWatts  int
}

// ParseNvidiaSMI parses one row per device from nvidia-smi CSV output.
// Example row: "0, NVIDIA GeForce RTX 3080, 45, 2048, 10240, 65, 220.5"
//
// Returns nil, nil when the output reports no device.
func ParseNvidiaSMI(output string) ([]NvidiaGPU, error) {
	output = strings.TrimSpace(output)
	if output == "" || nvidiaNoDevice(output) {
		return nil, nil
	}

	var gpus []NvidiaGPU
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		gpu, err := parseNvidiaRow(line)
		if err != nil {
			return nil, err
		}
		gpus = append(gpus, gpu)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning nvidia-smi output: %w", err)
	}
	return gpus, nil
}

func nvidiaNoDevice(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "no devices") ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "error")
}

func parseNvidiaRow(line string) (NvidiaGPU, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 7 {
		return NvidiaGPU{}, fmt.Errorf("nvidia-smi row has insufficient fields: expected 7, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var gpu NvidiaGPU
	var err error

	if gpu.Index, err = strconv.Atoi(fields[0]); err != nil {
		return NvidiaGPU{}, fmt.Errorf("failed to parse GPU index '%s': %w", fields[0], err)
	}
	gpu.Name = fields[1]

	if util, ok, err := optionalFloat(fields[2]); err != nil {
		return NvidiaGPU{}, fmt.Errorf("failed to parse GPU utilization '%s': %w", fields[2], err)
	} else if ok {
		gpu.Utilization = util
	}

	// Memory is reported in MiB.
	if used, ok, err := optionalFloat(fields[3]); err != nil {
		return NvidiaGPU{}, fmt.Errorf("failed to parse GPU memory used '%s': %w", fields[3], err)
	} else if ok {
		gpu.MemoryUsed = int64(used) * 1024 * 1024
	}
	if total, ok, err := optionalFloat(fields[4]); err != nil {
		return NvidiaGPU{}, fmt.Errorf("failed to parse GPU memory total '%s': %w", fields[4], err)
	} else if ok {
		gpu.MemoryTotal = int64(total) * 1024 * 1024
	}

	if temp, ok, err := optionalFloat(fields[5]); err != nil {
		return NvidiaGPU{}, fmt.Errorf("failed to parse GPU temperature '%s': %w", fields[5], err)
	} else if ok {
		gpu.Temperature = int(temp)
	}

	if power, ok, err := optionalFloat(fields[6]); err != nil {
		return NvidiaGPU{}, fmt.Errorf("failed to parse GPU power '%s': %w", fields[6], err)
	} else if ok {
		gpu.PowerWatts = int(power)
	}

	return gpu, nil
}

// optionalFloat parses a numeric field, treating "[N/A]" and "" as absent.
func optionalFloat(s string) (float64, bool, error) {
	if s == "" || s == "[N/A]" || s == "N/A" || s == "[Not Supported]" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ParseNvidiaComputePIDs parses the pid list of nvidia-smi --query-compute-apps.
// Unparseable lines are skipped.
func ParseNvidiaComputePIDs(output string) []int32 {
	var pids []int32
	seen := make(map[int32]bool)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.ParseInt(line, 10, 32)
		if err != nil || pid <= 0 {
			continue
		}
		if !seen[int32(pid)] {
			seen[int32(pid)] = true
			pids = append(pids, int32(pid))
		}
	}
	return pids
}
