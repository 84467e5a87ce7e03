package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  errors.New(`unknown command "foo" for "oversee"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  errors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "other error",
			err:  errors.New("process enumeration denied"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				// Can't call isUnknownCommandError with nil
				return
			}
			got := isUnknownCommandError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard cobra format",
			err:  errors.New(`unknown command "foo" for "oversee"`),
			want: "foo",
		},
		{
			name: "subcommand typo",
			err:  errors.New(`unknown command "snapshto" for "oversee"`),
			want: "snapshto",
		},
		{
			name: "command with hyphen",
			err:  errors.New(`unknown command "my-task" for "oversee"`),
			want: "my-task",
		},
		{
			name: "no quotes returns empty",
			err:  errors.New("unknown command foo"),
			want: "",
		},
		{
			name: "single quote returns empty",
			err:  errors.New(`unknown command "foo`),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractUnknownCommand(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"snapshot", "doctor", "init", "config", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"config", "no-color"} {
		require.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing persistent flag --%s", name)
	}
	for _, name := range []string{"interval", "sort", "scope", "filter", "no-gpu"} {
		require.NotNil(t, rootCmd.Flags().Lookup(name), "missing flag --%s", name)
		require.NotNil(t, snapshotCmd.Flags().Lookup(name), "snapshot is missing flag --%s", name)
	}
}

func TestRootCommandRejectsArgs(t *testing.T) {
	err := rootCmd.Args(rootCmd, []string{"extra"})
	assert.Error(t, err)
}
