// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the citation HTTP API",
	Long: `Serve starts the local HTTP API. Writing tools resolve citation keys
with /items, /search and /complete, render citations with /bibliography and
reveal items with /select. The server stops cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "interface to bind (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "TCP port (overrides server.port)")
	serveCmd.Flags().Bool("debug", false, "debug logging and gin debug mode")
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.debug", serveCmd.Flags().Lookup("debug"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	store, cfg, err := openLibrary()
	if err != nil {
		return err
	}
	defer store.Close()

	styles, err := citeproc.Builtin()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Server.Debug)
	srv := server.New(cfg, store, styles, logger, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
