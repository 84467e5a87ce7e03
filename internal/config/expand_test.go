package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	t.Setenv("USER", "riley")
	home, _ := os.UserHomeDir()
	tmp := strings.TrimSuffix(os.TempDir(), "/")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "HOME expands",
			input:    "${HOME}/logs/oversee.log",
			expected: home + "/logs/oversee.log",
		},
		{
			name:     "USER expands",
			input:    "/var/log/${USER}.log",
			expected: "/var/log/riley.log",
		},
		{
			name:     "TMPDIR expands",
			input:    "${TMPDIR}/oversee.log",
			expected: tmp + "/oversee.log",
		},
		{
			name:     "tilde unchanged",
			input:    "~/oversee.log",
			expected: "~/oversee.log",
		},
		{
			name:     "absolute path unchanged",
			input:    "/opt/app/oversee.log",
			expected: "/opt/app/oversee.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input))
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"~", home},
		{"~/logs/oversee.log", filepath.Join(home, "logs/oversee.log")},
		{"/tmp/oversee.log", "/tmp/oversee.log"},
		{"~other/oversee.log", "~other/oversee.log"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTilde(tt.input))
		})
	}
}

func TestGetUser_Fallbacks(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("LOGNAME", "fallback")
	assert.Equal(t, "fallback", getUser())
}
