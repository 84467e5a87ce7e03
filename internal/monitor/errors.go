package monitor

import "errors"

// Sentinel errors. Check them with errors.Is().
var (
	// ErrOutOfOrder is returned when a sample is older than the newest one in its series.
	ErrOutOfOrder = errors.New("sample is older than the newest sample in the series")

	// ErrGPUUnavailable is returned by a GPU source that cannot run on this host
	// (missing binary, missing privilege, unsupported hardware).
	ErrGPUUnavailable = errors.New("gpu metrics unavailable")

	// ErrSourceUnavailable marks a data source that is permanently gone,
	// e.g. process enumeration denied by a sandbox.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrNoKernelPressure is returned when the OS has no native memory pressure signal.
	ErrNoKernelPressure = errors.New("no kernel memory pressure signal")
)

// IsSourceUnavailable reports whether err marks a permanently missing source.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}
