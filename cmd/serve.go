package cmd

import (
	"github.com/spf13/cobra"

	"menubard/internal/engine"
	"menubard/internal/logging"
	"menubard/internal/platform"
	"menubard/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the engine",
	Long: `Start a Model Context Protocol server around a fresh engine instance, so
MCP clients can list items, capture windows, inspect the configuration,
and drive sections.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  menubard serve
  menubard serve --transport streamable-http --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	// Stdout is the stdio transport; logs stay off it.
	initLogging(settings, false)
	defer logging.Close()

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

	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	return server.New(e).Serve(server.Config{Transport: transport, Port: port})
}
