package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrSource,
		ErrCollector,
		ErrGPU,
		ErrSignal,
		ErrTerminal,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "interval must be positive",
			suggestion: "Try something like 1s or 500ms",
		},
		{
			name:       "source error",
			code:       ErrSource,
			message:    "Process list is not readable",
			suggestion: "Run outside the sandbox",
		},
		{
			name:       "gpu error",
			code:       ErrGPU,
			message:    "powermetrics needs root",
			suggestion: "Run with sudo to see GPU usage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "message and suggestion",
			err:           New(ErrConfig, "Invalid configuration", "Check .oversee.yaml syntax"),
			expectedParts: []string{"✗", "Invalid configuration", "Check .oversee.yaml syntax"},
		},
		{
			name:          "no suggestion",
			err:           New(ErrCollector, "CPU sample failed", ""),
			expectedParts: []string{"CPU sample failed"},
			notExpected:   []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("read /proc/stat: permission denied")
	wrapped := Wrap(cause, "CPU sample failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrCollector, wrapped.Code, "Wrap should default to ErrCollector code")
	assert.Equal(t, "CPU sample failed", wrapped.Message)
	assert.Equal(t, cause, wrapped.Cause)
	assert.Contains(t, wrapped.Error(), "permission denied")
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("file not found")
	wrapped := WrapWithCode(cause, ErrConfig, "Failed to load config", "Run 'oversee init'")

	assert.Equal(t, ErrConfig, wrapped.Code)
	assert.Equal(t, "Run 'oversee init'", wrapped.Suggestion)
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, cause, wrapped.Unwrap())
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(ErrSource, "gone", ""))

	var oeErr *Error
	require.True(t, errors.As(wrapped, &oeErr))
	assert.Equal(t, ErrSource, oeErr.Code)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrSource))
	assert.True(t, IsCode(fmt.Errorf("wrapped: %w", err), ErrConfig))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("open /proc: no such file or directory"),
		ErrSource,
		"Cannot enumerate processes",
		"oversee needs access to the process table",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"), "first line should start with failure symbol")
	assert.Contains(t, lines[0], "Cannot enumerate processes")
}
