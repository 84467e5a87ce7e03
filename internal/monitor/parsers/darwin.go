package parsers

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IoregArgs are the ioreg arguments ParseAppleGPU expects.
var IoregArgs = []string{"-r", "-d", "1", "-w", "0", "-c", "IOAccelerator"}

// PowermetricsArgs sample the GPU once. powermetrics needs root.
var PowermetricsArgs = []string{"--samplers", "gpu_power", "-i", "500", "-n", "1"}

// AppleGPU holds the Apple Silicon GPU statistics exposed by ioreg.
type AppleGPU struct {
	Model       string
	Cores       int
	Utilization float64
	MemoryUsed  int64
	MemoryAlloc int64
}

var (
	appleModelRe = regexp.MustCompile(`"model"\s*=\s*"([^"]+)"`)
	appleCoresRe = regexp.MustCompile(`"gpu-core-count"\s*=\s*(\d+)`)
	applePerfRe  = regexp.MustCompile(`"PerformanceStatistics"\s*=\s*\{([^}]+)\}`)
)

// ParseAppleGPU parses GPU statistics from Apple Silicon ioreg output.
// Expected input contains lines like:
//
//	"PerformanceStatistics" = {"Device Utilization %"=12,"In use system memory"=123456,...}
//	"model" = "Apple M4"
//	"gpu-core-count" = 10
//
// Returns false when the output carries no utilization statistic.
func ParseAppleGPU(output string) (AppleGPU, bool) {
	output = strings.TrimSpace(output)
	if output == "" {
		return AppleGPU{}, false
	}

	var gpu AppleGPU
	if match := appleModelRe.FindStringSubmatch(output); len(match) > 1 {
		gpu.Model = match[1]
	}
	if match := appleCoresRe.FindStringSubmatch(output); len(match) > 1 {
		gpu.Cores, _ = strconv.Atoi(match[1])
	}

	match := applePerfRe.FindStringSubmatch(output)
	if len(match) < 2 {
		return AppleGPU{}, false
	}
	stats := match[1]

	util := extractAppleGPUStat(stats, "Device Utilization %")
	if util < 0 {
		return AppleGPU{}, false
	}
	gpu.Utilization = util

	if val := extractAppleGPUStat(stats, "In use system memory"); val >= 0 {
		gpu.MemoryUsed = int64(val)
	}
	if val := extractAppleGPUStat(stats, "Alloc system memory"); val >= 0 {
		gpu.MemoryAlloc = int64(val)
	}

	return gpu, true
}

// extractAppleGPUStat extracts a numeric value from the PerformanceStatistics
// dictionary. Returns -1 when the key is missing.
func extractAppleGPUStat(stats, key string) float64 {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*=\s*([\d.]+)`)
	if match := re.FindStringSubmatch(stats); len(match) > 1 {
		val, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			return val
		}
	}
	return -1
}

// ParsePowermetricsGPU extracts GPU active residency from powermetrics text
// output. It accepts "GPU HW active residency: 12.34% (...)" and the older
// "GPU active residency: 12.34%". When only the idle residency is printed the
// active share is derived from it.
func ParsePowermetricsGPU(output string) (float64, error) {
	idle := -1.0
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "gpu hw active residency", "gpu active residency":
			return parseLeadingPercent(rest)
		case "gpu idle residency":
			if v, err := parseLeadingPercent(rest); err == nil {
				idle = v
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error scanning powermetrics output: %w", err)
	}
	if idle >= 0 {
		return 100 - idle, nil
	}
	return 0, fmt.Errorf("no GPU residency in powermetrics output")
}

// parseLeadingPercent parses "  12.34% (389 MHz...)" into 12.34.
func parseLeadingPercent(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty percentage")
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse percentage '%s': %w", fields[0], err)
	}
	return v, nil
}
