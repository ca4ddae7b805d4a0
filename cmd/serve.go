package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timvw/zj-link/internal/server"
)

var (
	flagSocket string
	flagWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer editor requests over stdio or a unix socket",
	Long: `Run the editor bridge. Requests are newline-delimited JSON objects read
from stdin, answers are written to stdout; logs go to stderr or --log-file.

With --socket the bridge listens on a unix stream socket instead, and
several editor windows or processes can share it. Without a value the
socket is created under $XDG_RUNTIME_DIR/zj-link.

With --watch, project config files are reloaded when they change on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagSocket, "socket", "", "listen on a unix socket at this path instead of stdio")
	serveCmd.Flags().Lookup("socket").NoOptDefVal = server.DefaultSocketPath()
	serveCmd.Flags().BoolVar(&flagWatch, "watch", false, "reload project config files when they change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if flagSession != "" {
		session := flagSession
		a.bridge.FallbackSession = func() (string, bool) { return session, true }
	}

	srv := server.New(a.bridge, a.logger)
	if a.cfg.Watch {
		if err := srv.Watch(ctx); err != nil {
			return fmt.Errorf("config watcher: %w", err)
		}
	}

	a.logger.Info("zj-link serving", "version", Version, "socket", a.cfg.Socket, "watch", a.cfg.Watch)
	if a.cfg.Socket != "" {
		return srv.ListenUnix(ctx, a.cfg.Socket)
	}
	return srv.Serve(ctx, os.Stdin, os.Stdout)
}
