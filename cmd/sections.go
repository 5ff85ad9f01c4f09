package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"menubard/internal/model"
)

// ErrUnavailable is returned by verbs that need the running daemon's
// in-process state.
var ErrUnavailable = errors.New("no running daemon owns the sections; start one with \"menubard run --mcp-port PORT\" and use its toggle_section / section_state tools")

var toggleCmd = &cobra.Command{
	Use:   "toggle {hidden|always-hidden}",
	Short: "Toggle a section between shown and hidden",
	Long: `Toggle a section. Sections live inside the running daemon process (the
control items are its status items), so this verb only validates its
argument and points at the daemon's MCP interface.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sec, err := model.ParseSection(args[0])
		if err != nil {
			return err
		}
		if sec.IsFirst() {
			return fmt.Errorf("the %s section is never hidden", sec)
		}
		return ErrUnavailable
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Report each section's hiding state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ErrUnavailable
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(stateCmd)
}
