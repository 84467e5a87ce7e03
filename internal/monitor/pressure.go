package monitor

// PressureLevel is the three-level memory health classification.
type PressureLevel int

const (
	PressureNormal PressureLevel = iota
	PressureWarning
	PressureCritical
)

// String returns the display name of the level.
func (l PressureLevel) String() string {
	switch l {
	case PressureNormal:
		return "normal"
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// PressureOrigin records which input a MemoryStatus was derived from.
type PressureOrigin int

const (
	SourceRatio PressureOrigin = iota
	SourceKernel
)

// Ratio band lower bounds. A boundary value belongs to the higher band.
const (
	NormalRatio  = 0.50
	WarningRatio = 0.30
)

// PressureSignal is the classifier input: an optional native kernel level and
// the available/total memory ratio used as fallback.
type PressureSignal struct {
	HasKernelLevel bool
	KernelLevel    PressureLevel
	// RawKernelLevel is the unmapped OS value, kept for display.
	RawKernelLevel int
	Ratio          float64
}

// MemoryStatus is the classification plus the value it was derived from.
type MemoryStatus struct {
	Level       PressureLevel
	Source      PressureOrigin
	KernelLevel int
	Ratio       float64
}

// ClassifyPressure maps a pressure signal to a status. A kernel level always
// wins over the ratio. Ratios above 1 are treated as Normal; NaN and negative
// ratios are treated as Critical.
func ClassifyPressure(sig PressureSignal) MemoryStatus {
	if sig.HasKernelLevel {
		return MemoryStatus{
			Level:       sig.KernelLevel,
			Source:      SourceKernel,
			KernelLevel: sig.RawKernelLevel,
			Ratio:       sig.Ratio,
		}
	}

	level := PressureCritical
	switch r := sig.Ratio; {
	case r >= NormalRatio:
		level = PressureNormal
	case r >= WarningRatio:
		level = PressureWarning
	}
	return MemoryStatus{Level: level, Source: SourceRatio, Ratio: sig.Ratio}
}

// DarwinPressureLevel maps kern.memorystatus_vm_pressure_level.
// 1 is normal, 2 warn, 4 critical.
func DarwinPressureLevel(raw int) (PressureLevel, bool) {
	switch raw {
	case 1:
		return PressureNormal, true
	case 2:
		return PressureWarning, true
	case 4:
		return PressureCritical, true
	default:
		return PressureNormal, false
	}
}

// PSI thresholds on /proc/pressure/memory avg10 percentages.
const (
	psiFullCritical = 5.0
	psiSomeCritical = 40.0
	psiSomeWarning  = 10.0
)

// PSIToLevel maps Linux memory PSI averages (percent of time stalled over
// the last 10 seconds) to a pressure level.
func PSIToLevel(someAvg10, fullAvg10 float64) PressureLevel {
	switch {
	case fullAvg10 >= psiFullCritical || someAvg10 >= psiSomeCritical:
		return PressureCritical
	case someAvg10 >= psiSomeWarning:
		return PressureWarning
	default:
		return PressureNormal
	}
}

// AvailableRatio computes the fallback ratio from memory counters. When more
// than 10% of swap is in use the ratio is reduced proportionally, since heavy
// swapping means pressure even if some RAM is still free.
func AvailableRatio(available, total, swapUsed, swapTotal uint64) float64 {
	if total == 0 {
		return 1
	}
	ratio := float64(available) / float64(total)
	if swapTotal > 0 {
		swapPct := float64(swapUsed) / float64(swapTotal) * 100
		if swapPct > 10 {
			ratio *= 1 - (swapPct-10)/100
		}
	}
	return ratio
}
