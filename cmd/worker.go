package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"menubard/internal/ipc"
	"menubard/internal/logging"
	"menubard/internal/pidcache"
	"menubard/internal/platform"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the identity-resolution worker",
	Long: `Run the worker process that resolves which application owns each menu
bar item window. Resolution walks foreign accessibility trees with
synchronous calls that can block on a frozen process, so it runs out of
process; the daemon reaches it over a local socket and treats it as
best-effort.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().String("socket", "", "Socket path (default: from the settings file)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	initLogging(settings, true)
	defer logging.Close()
	log := logging.Logger()

	socket, _ := cmd.Flags().GetString("socket")
	if socket == "" {
		socket = settings.Socket
	}

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	cache := pidcache.New(provider.WindowServer, provider.Accessibility, provider.Apps)
	defer cache.Close()

	srv := ipc.NewServer(socket, cache)
	if err := srv.Listen(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("worker shutting down", "signal", s.String())
		srv.Close()
		return nil
	case err := <-done:
		return err
	}
}
