package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"menubard/internal/config"
	"menubard/internal/engine"
	"menubard/internal/logging"
	"menubard/internal/platform"
	"menubard/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control daemon",
	Long: `Run the menu bar control daemon: creates the section control items,
installs the event monitors and hotkeys, and reloads the settings file on
external edits. Start the identity worker ("menubard worker") alongside it
to resolve item owners.

Examples:
  menubard run
  menubard run --mcp-port 8080`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("mcp-port", 0, "Also serve the MCP interface over streamable HTTP on this port (0 disables)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	initLogging(settings, true)
	defer logging.Close()
	log := logging.Logger()

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	e, err := engine.New(provider, settings)
	if err != nil {
		return err
	}
	if err := e.Start(); err != nil {
		return err
	}
	defer e.Stop()

	stopWatch, err := config.Watch(settingsPath, func(next config.Settings) {
		if err := e.Reload(next); err != nil {
			log.Warn("settings reload rejected", "error", err)
		}
	})
	if err != nil {
		log.Warn("settings file not watched", "error", err)
	} else {
		defer stopWatch()
	}

	if port, _ := cmd.Flags().GetInt("mcp-port"); port > 0 {
		srv := server.New(e)
		go func() {
			if err := srv.Serve(server.Config{Transport: "streamable-http", Port: port}); err != nil {
				log.Error("mcp server stopped", "error", err)
			}
		}()
	}

	log.Info("daemon running")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	fmt.Fprintf(os.Stderr, "received %s, shutting down\n", s)
	return nil
}
