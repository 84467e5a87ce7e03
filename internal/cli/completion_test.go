package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRootCmd creates a fresh root command for testing.
func resetRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "oversee",
		Short: "Real-time CPU, GPU, memory and process dashboard",
	}
}

func TestCompletionBashGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	err := cmd.GenBashCompletion(&buf)

	require.NoError(t, err)
	output := buf.String()

	assert.Contains(t, output, "# bash completion for oversee")
	assert.Contains(t, output, "__oversee_debug")
	assert.Contains(t, output, "complete -o default -F __start_oversee oversee")
}

func TestCompletionZshGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	err := cmd.GenZshCompletion(&buf)

	require.NoError(t, err)
	output := buf.String()

	assert.Contains(t, output, "#compdef oversee")
	assert.Contains(t, output, "_oversee()")
}

func TestCompletionFishGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	err := cmd.GenFishCompletion(&buf, true)

	require.NoError(t, err)
	output := buf.String()

	assert.Contains(t, output, "fish completion for oversee")
	assert.Contains(t, output, "complete -c oversee")
}

func TestCompletionPowershellGeneration(t *testing.T) {
	cmd := resetRootCmd()

	var buf bytes.Buffer
	err := cmd.GenPowerShellCompletion(&buf)

	require.NoError(t, err)
	output := buf.String()

	assert.Contains(t, strings.ToLower(output), "powershell completion")
	assert.Contains(t, output, "Register-ArgumentCompleter")
}

func TestCompletionIncludesBuiltinCommands(t *testing.T) {
	// Cobra completes dynamically through __completeNoDesc; commands still
	// get their own functions in the bash script.
	var buf bytes.Buffer
	err := rootCmd.GenBashCompletion(&buf)

	require.NoError(t, err)
	output := buf.String()

	assert.Contains(t, output, "__completeNoDesc", "should use dynamic completion")
	assert.Contains(t, output, "__start_oversee", "should have start function")
	assert.Contains(t, output, "_oversee_root_command", "should have root command function")

	assert.Contains(t, output, "_oversee_snapshot()")
	assert.Contains(t, output, "_oversee_init()")
	assert.Contains(t, output, "_oversee_doctor()")
	assert.Contains(t, output, "_oversee_config()")
	assert.Contains(t, output, "_oversee_completion()")
}

func TestCompletionBashSyntaxValid(t *testing.T) {
	cmd := resetRootCmd()
	cmd.AddCommand(&cobra.Command{Use: "snapshot", Short: "Print a snapshot"})
	cmd.AddCommand(&cobra.Command{Use: "version", Short: "Print version"})

	var buf bytes.Buffer
	err := cmd.GenBashCompletion(&buf)

	require.NoError(t, err)
	output := buf.String()

	assert.Equal(t, strings.Count(output, "{"), strings.Count(output, "}"), "braces should be balanced")
	assert.Contains(t, output, "__start_oversee()")
	assert.Contains(t, output, "complete -o default -F __start_oversee oversee")
}

func TestCompletionCommandValidArgs(t *testing.T) {
	assert.Contains(t, completionCmd.ValidArgs, "bash")
	assert.Contains(t, completionCmd.ValidArgs, "zsh")
	assert.Contains(t, completionCmd.ValidArgs, "fish")
	assert.Contains(t, completionCmd.ValidArgs, "powershell")
	assert.Len(t, completionCmd.ValidArgs, 4)
}

func TestCompletionCommandWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	completionCmd.SetOut(&buf)
	defer completionCmd.SetOut(nil)

	err := completionCmd.RunE(completionCmd, []string{"zsh"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "#compdef oversee")
}
