package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/rselect/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration values",
	Long: `Show or change rselect configuration values.

Without a subcommand, lists all configuration keys and their values.

Configuration is stored in ~/.config/rselect/config.yaml (XDG compliant).

Keys are in the format: section.key
Sections: prompt, source, log

Examples:
  rselect config                              # List all keys
  rselect config get prompt.message           # Show one value
  rselect config set source.timeout_ms 3000   # Change a value
  rselect config path                         # Print the config file path`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(config.DefaultPaths())
		if err != nil {
			return err
		}
		return listConfig(cmd.OutOrStdout(), cfg, path)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(config.DefaultPaths())
		if err != nil {
			return err
		}
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration value and save it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Environment overrides are for this run only; never save them.
		path := configFile(config.DefaultPaths())
		cfg, err := config.LoadFileOnly(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return setConfig(cmd.OutOrStdout(), cfg, path, args[0], args[1])
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configFile(config.DefaultPaths()))
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configPathCmd)
}

func listConfig(w io.Writer, cfg *config.Config, path string) error {
	fmt.Fprintf(w, "%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w)

	var failedKeys []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}

		displayValue := value
		if displayValue == "" {
			displayValue = colorDim + "(not set)" + colorReset
		}

		fmt.Fprintf(w, "  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue)
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(w, "\n%sWarning:%s Failed to retrieve keys: %s\n", colorYellow, colorReset, strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Config file: %s\n", path)

	return nil
}

func setConfig(w io.Writer, cfg *config.Config, path, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Fprintf(w, "Saved to: %s\n", path)

	return nil
}
