package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rileyhilliard/oversee/internal/config"
	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Inspect and edit the config file.

Settings resolve in this order: --config, ./.oversee.yaml,
~/.config/oversee/config.yaml, then defaults. OVERSEE_* environment
variables override any of them.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPathCommand(cmd.OutOrStdout(), configFlag)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCommand(cmd.OutOrStdout(), configFlag)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set one key in the config file, keeping its comments and layout.
When no config file exists, ./.oversee.yaml is created.

Lists are written as YAML flow sequences.

Examples:
  oversee config set interval 500ms
  oversee config set timeline.scope 120s
  oversee config set gpu.enabled false
  oversee config set timeline.scopes "[30s, 60s, 300s]"`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return knownKeys(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetCommand(cmd.OutOrStdout(), configFlag, args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func configPathCommand(out io.Writer, explicit string) error {
	path, err := config.Find(explicit)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(out, "No config file found, using defaults.")
		fmt.Fprintf(out, "Run 'oversee init' to create %s\n", config.ConfigFileName)
		return nil
	}
	fmt.Fprintln(out, path)
	return nil
}

func configShowCommand(out io.Writer, explicit string) error {
	cfg, path, err := config.LoadOrDefault(explicit)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode config",
			"This shouldn't happen, please report it")
	}

	if path == "" {
		fmt.Fprintln(out, "# defaults (no config file found)")
	} else {
		fmt.Fprintf(out, "# %s\n", path)
	}
	_, err = out.Write(data)
	return err
}

func configSetCommand(out io.Writer, explicit, key, raw string) error {
	if !isKnownKey(key) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown config key '%s'.%s", key, util.DidYouMean(key, knownKeys())),
			"Known keys: "+util.JoinOrNone(knownKeys()))
	}

	path, err := config.Find(explicit)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.ConfigFileName
	}

	original, readErr := os.ReadFile(path)
	existed := readErr == nil

	if err := config.SetValue(path, key, config.ParseValue(raw)); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to update "+path,
			"Check the file is valid YAML and writable")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		restore(path, original, existed)
		return err
	}

	fmt.Fprintf(out, "Set %s = %s in %s\n", key, raw, path)
	return nil
}

// restore puts back the file contents from before a rejected change.
func restore(path string, original []byte, existed bool) {
	if !existed {
		_ = os.Remove(path)
		return
	}
	_ = os.WriteFile(path, original, 0644)
}

// knownKeys lists every settable dotted key, derived from the defaults.
func knownKeys() []string {
	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return nil
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil
	}

	var keys []string
	flattenKeys("", tree, &keys)
	sort.Strings(keys)
	return keys
}

func flattenKeys(prefix string, tree map[string]any, keys *[]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flattenKeys(key, sub, keys)
			continue
		}
		*keys = append(*keys, key)
	}
}

func isKnownKey(key string) bool {
	for _, k := range knownKeys() {
		if k == key {
			return true
		}
	}
	return false
}
