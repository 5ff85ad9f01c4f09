package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"menubard/internal/config"
	"menubard/internal/logging"
	"menubard/internal/output"
	"menubard/internal/platform"
	"menubard/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "menubard",
	Short: "Manage the visibility, ordering, and identity of menu bar items",
	Long: `menubard partitions the menu bar into visible, hidden, and always-hidden
sections, hides and reveals them through synthetic control items, and
resolves which process owns each foreign item window.`,
}

// settingsPath is resolved in the persistent pre-run so every verb loads
// the same settings file.
var settingsPath string

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("config", "", "Settings file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if platform.RequestPermissionsFunc != nil {
			platform.RequestPermissionsFunc()
		}

		settingsPath, _ = rootCmd.PersistentFlags().GetString("config")
		if settingsPath == "" {
			settingsPath = config.DefaultPath()
		}

		// Smart default: piped output (machine consumer) → json,
		// terminal output (human) → yaml.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		if format == "" {
			if output.IsOutputPiped() {
				format = "json"
			} else {
				format = "yaml"
			}
		}
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if pretty, err := rootCmd.PersistentFlags().GetBool("pretty"); err == nil && pretty {
			output.PrettyOutput = true
		}
		return nil
	}
}

// loadSettings reads the settings file every verb shares.
func loadSettings() (config.Settings, error) {
	return config.Load(settingsPath)
}

// initLogging configures the process logger from the settings file, with
// stderr mirroring for foreground use.
func initLogging(settings config.Settings, stderr bool) {
	logging.Init(logging.Config{
		LogDir: settings.Logging.Dir,
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Stderr: stderr,
	})
}
