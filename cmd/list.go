package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"menubard/internal/bridge"
	"menubard/internal/ipc"
	"menubard/internal/logging"
	"menubard/internal/model"
	"menubard/internal/output"
	"menubard/internal/platform"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List menu bar item windows",
	Long: `List the menu bar item windows the window server currently reports,
with each item's resolved owner. Owner resolution asks the identity worker
when the window server no longer reports an owner; without a running
worker those items list as "unknown".

Examples:
  menubard list
  menubard list --all-spaces --format json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("all-spaces", false, "Include items on inactive spaces")
	listCmd.Flags().Bool("off-screen", false, "Include items that are not on screen")
}

// itemRow is the list verb's output record.
type itemRow struct {
	WindowID model.WindowID `yaml:"window_id"       json:"window_id"`
	Frame    model.Rect     `yaml:"frame"           json:"frame"`
	Owner    string         `yaml:"owner"           json:"owner"`
	Title    string         `yaml:"title,omitempty" json:"title,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	initLogging(settings, false)
	defer logging.Close()

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	allSpaces, _ := cmd.Flags().GetBool("all-spaces")
	offScreen, _ := cmd.Flags().GetBool("off-screen")

	b := bridge.New(provider.WindowServer)
	windows := b.MenuBarItemWindows(bridge.ListOptions{
		OnScreenOnly:    !offScreen,
		ActiveSpaceOnly: !allSpaces,
		ItemsOnly:       true,
	})

	worker := ipc.NewClient(settings.Socket)
	defer worker.Close()

	rows := make([]itemRow, 0, len(windows))
	for _, info := range windows {
		owner := info.OwnerName
		if owner == "" {
			if pid, ok := worker.SourcePID(info); ok {
				owner = fmt.Sprintf("pid %d", pid)
			} else {
				owner = "unknown"
			}
		}
		rows = append(rows, itemRow{
			WindowID: info.ID,
			Frame:    info.Frame,
			Owner:    owner,
			Title:    info.Title,
		})
	}
	return output.Print(rows)
}
