package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPSIPressureLevel(t *testing.T) {
	tests := []struct {
		name    string
		content string
		raw     int
		level   PressureLevel
	}{
		{
			name:    "quiet",
			content: "some avg10=0.40 avg60=0.10 avg300=0.00 total=10\nfull avg10=0.00 avg60=0.00 avg300=0.00 total=1\n",
			raw:     0,
			level:   PressureNormal,
		},
		{
			name:    "warning",
			content: "some avg10=15.60 avg60=4.00 avg300=1.00 total=10\nfull avg10=1.00 avg60=0.00 avg300=0.00 total=1\n",
			raw:     16,
			level:   PressureWarning,
		},
		{
			name:    "full stall is critical",
			content: "some avg10=20.00 avg60=4.00 avg300=1.00 total=10\nfull avg10=7.50 avg60=0.00 avg300=0.00 total=1\n",
			raw:     20,
			level:   PressureCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "memory")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			raw, level, err := psiPressure{path: path}.Level(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.raw, raw)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestPSIPressureMissingFile(t *testing.T) {
	_, _, err := psiPressure{path: filepath.Join(t.TempDir(), "absent")}.Level(context.Background())
	assert.ErrorIs(t, err, ErrNoKernelPressure)
}
