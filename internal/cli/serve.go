package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/xrplbench/internal/runner"
	"github.com/LeJamon/xrplbench/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the builder API for the browser UI",
	Long: `Start the HTTP server the browser UI talks to: JSON-RPC on / and a
websocket stream of test status transitions on /ws. The server runs until
interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(nil)
	app, err := newApp(runner.WithNotifier(hub))
	if err != nil {
		return err
	}
	defer app.close()
	hub.SetLogger(app.log)

	handler := server.NewHandler(app.cat, app.reg, app.runner,
		app.networkEndpoints(), app.client.SetEndpoint, app.log)
	srv := server.NewServer(app.cfg.Listen, handler, hub, app.log)

	app.log.Info("serving builder API",
		zap.String("listen", app.cfg.Listen),
		zap.String("network", app.reg.Network()))
	return srv.Run(ctx)
}
