package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"menubard/internal/items"
	"menubard/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate configuration files",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		return output.Print(settings)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the settings file and, optionally, a persisted item configuration",
	Long: `Validate the settings file. With --items, also load a persisted item
configuration, run its validation pass (duplicate pruning, new-items
marker placement), and print the validated result.

Examples:
  menubard config validate
  menubard config validate --items ~/.config/menubard/items.yaml`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configValidateCmd.Flags().String("items", "", "Persisted item configuration file to validate")
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadSettings(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "settings ok: %s\n", settingsPath)

	path, _ := cmd.Flags().GetString("items")
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read item configuration: %w", err)
	}
	var s items.Serialized
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse item configuration: %w", err)
	}
	cfg, err := items.FromSerialized(s)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "item configuration ok: %s\n", path)
	return output.Print(cfg.Serialize())
}
