package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderHeader(t *testing.T) {
	out := RenderHeader(HeaderInfo{
		Version: "v0.3.0",
		Tagline: "Local system monitor",
		Host:    "build-box · linux 6.8",
	})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "oversee")
	assert.Contains(t, lines[0], "v0.3.0")
	assert.Contains(t, lines[1], "Local system monitor")
	assert.Contains(t, lines[2], "build-box")
	assert.Contains(t, lines[3], strings.Repeat("━", HeaderWidth))
}

func TestRenderHeader_Minimal(t *testing.T) {
	out := RenderHeader(HeaderInfo{})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Len(t, lines, 2, "title and divider only")
	assert.Contains(t, lines[0], "oversee")
}

func TestPrintHeader(t *testing.T) {
	info := HeaderInfo{Version: "v0.3.0", Tagline: "Diagnostics"}

	var buf strings.Builder
	PrintHeader(&buf, info)

	assert.Equal(t, RenderHeader(info), buf.String())
}
