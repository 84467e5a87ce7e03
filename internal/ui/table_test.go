package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTableStyle(t *testing.T) {
	style := DefaultTableStyle()

	// Verify the styles have been initialized (they are non-nil structs)
	// We can't easily test lipgloss.Style contents, so just verify we can render with them
	testStr := "test"
	assert.NotPanics(t, func() {
		_ = style.Header.Render(testStr)
		_ = style.Cell.Render(testStr)
		_ = style.Selected.Render(testStr)
		_ = style.Border.Render(testStr)
	})
}

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Name", Width: 20},
		{Title: "Status", Width: 10},
	}
	rows := []table.Row{
		{"item1", "ok"},
		{"item2", "error"},
	}

	tbl := NewTable(columns, rows)

	// Table should be created without panicking
	view := tbl.View()
	assert.NotEmpty(t, view)
	assert.Contains(t, view, "Name")
	assert.Contains(t, view, "Status")
	assert.Contains(t, view, "item1")
	assert.Contains(t, view, "item2")
}

func TestNewTable_EmptyRows(t *testing.T) {
	columns := []TableColumn{
		{Title: "Name", Width: 20},
	}
	rows := []table.Row{}

	tbl := NewTable(columns, rows)
	view := tbl.View()

	assert.NotEmpty(t, view)
	assert.Contains(t, view, "Name")
}

func TestRenderSimpleTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Host", Width: 15},
		{Title: "Status", Width: 10},
	}
	rows := [][]string{
		{"server1", "online"},
		{"server2", "offline"},
	}

	output := RenderSimpleTable(columns, rows)

	assert.Contains(t, output, "Host")
	assert.Contains(t, output, "Status")
	assert.Contains(t, output, "server1")
	assert.Contains(t, output, "server2")
	assert.Contains(t, output, "online")
	assert.Contains(t, output, "offline")
}

func TestRenderSimpleTable_EmptyRows(t *testing.T) {
	columns := []TableColumn{
		{Title: "Name", Width: 20},
	}
	rows := [][]string{}

	output := RenderSimpleTable(columns, rows)
	assert.Empty(t, output)
}

func TestRenderSummary(t *testing.T) {
	rows := []SummaryRow{
		{Status: "ok", Section: "CPU", Label: "overall", Value: "40.0%"},
		{Status: "warn", Section: "Memory", Label: "pressure", Value: "warning", Note: "swap is filling up"},
		{Status: "fail", Section: "GPU", Label: "source", Value: "unavailable", Note: "install nvidia-smi"},
	}

	output := RenderSummary(rows)

	assert.Contains(t, output, "CPU")
	assert.Contains(t, output, "Memory")
	assert.Contains(t, output, "40.0%")
	assert.Contains(t, output, "swap is filling up")
	assert.Contains(t, output, "install nvidia-smi")
	assert.Contains(t, output, "pressure")
}

func TestRenderSummary_EmptyRows(t *testing.T) {
	assert.Equal(t, "Nothing to display", RenderSummary(nil))
}

func TestRenderSummary_GroupsBySection(t *testing.T) {
	rows := []SummaryRow{
		{Section: "Sec1", Label: "a", Value: "Row 1"},
		{Section: "Sec2", Label: "b", Value: "Row 2"},
		{Section: "Sec1", Label: "c", Value: "Row 3"},
	}

	output := RenderSummary(rows)

	sec1 := strings.Index(output, "Sec1")
	sec2 := strings.Index(output, "Sec2")
	row3 := strings.Index(output, "Row 3")
	assert.Less(t, sec1, sec2)
	assert.Less(t, row3, sec2, "rows of the same section are grouped")
}

func TestRenderSummary_NoNoteForOK(t *testing.T) {
	rows := []SummaryRow{
		{Status: "ok", Section: "Test", Label: "check", Value: "All good", Note: "This should not appear"},
	}

	output := RenderSummary(rows)

	assert.Contains(t, output, "All good")
	assert.NotContains(t, output, "This should not appear")
}

func TestRenderSummary_AlignsLabels(t *testing.T) {
	rows := []SummaryRow{
		{Section: "Host", Label: "name", Value: "build-box"},
		{Section: "Host", Label: "platform", Value: "darwin"},
	}

	output := RenderSummary(rows)
	assert.Contains(t, output, "name      build-box")
	assert.Contains(t, output, "platform  darwin")
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{
			name:     "shorter than width",
			input:    "foo",
			width:    5,
			expected: "foo  ",
		},
		{
			name:     "equal to width",
			input:    "foobar",
			width:    6,
			expected: "foobar",
		},
		{
			name:     "longer than width",
			input:    "foobar",
			width:    3,
			expected: "foobar",
		},
		{
			name:     "empty string",
			input:    "",
			width:    3,
			expected: "   ",
		},
		{
			name:     "zero width",
			input:    "foo",
			width:    0,
			expected: "foo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padRight(tt.input, tt.width)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTableColumn(t *testing.T) {
	col := TableColumn{Title: "Test", Width: 25}
	assert.Equal(t, "Test", col.Title)
	assert.Equal(t, 25, col.Width)
}
