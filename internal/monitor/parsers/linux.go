package parsers

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// PSILine is one line of a /proc/pressure file. Averages are percentages.
type PSILine struct {
	Avg10  float64
	Avg60  float64
	Avg300 float64
	Total  uint64
}

// PSI holds the "some" and "full" lines of /proc/pressure/memory.
type PSI struct {
	Some    PSILine
	Full    PSILine
	HasFull bool
}

// ParsePSI parses pressure stall information, e.g.:
//
//	some avg10=0.00 avg60=0.12 avg300=0.05 total=123456
//	full avg10=0.00 avg60=0.00 avg300=0.00 total=7890
func ParsePSI(content string) (PSI, error) {
	var psi PSI
	hasSome := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		line, err := parsePSIFields(fields[1:])
		if err != nil {
			return PSI{}, fmt.Errorf("invalid PSI line %q: %w", scanner.Text(), err)
		}
		switch fields[0] {
		case "some":
			psi.Some = line
			hasSome = true
		case "full":
			psi.Full = line
			psi.HasFull = true
		}
	}
	if err := scanner.Err(); err != nil {
		return PSI{}, fmt.Errorf("error scanning PSI: %w", err)
	}
	if !hasSome {
		return PSI{}, fmt.Errorf("PSI has no 'some' line")
	}
	return psi, nil
}

func parsePSIFields(fields []string) (PSILine, error) {
	var line PSILine
	for _, f := range fields {
		key, val, ok := strings.Cut(f, "=")
		if !ok {
			return PSILine{}, fmt.Errorf("malformed field %q", f)
		}
		if key == "total" {
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return PSILine{}, fmt.Errorf("failed to parse total '%s': %w", val, err)
			}
			line.Total = n
			continue
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return PSILine{}, fmt.Errorf("failed to parse %s '%s': %w", key, val, err)
		}
		switch key {
		case "avg10":
			line.Avg10 = v
		case "avg60":
			line.Avg60 = v
		case "avg300":
			line.Avg300 = v
		}
	}
	return line, nil
}
