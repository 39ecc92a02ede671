// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cite-engine CLI: the citation
// HTTP API plus library import and lookup commands.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cite-engine/internal/library"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the cite-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "cite-engine",
	Short: "Local citation API for writing tools",
	Long: `cite-engine serves a local HTTP API that resolves citation keys against
a bibliographic library and renders citations and bibliographies in
citation styles.

The library is a SQLite database populated with the import command from
CSL-JSON or YAML files. The serve command starts the API.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cite-engine.yaml or ~/.config/cite-engine/config.yaml)")
	rootCmd.PersistentFlags().String("library", "", "library database path (overrides library.path)")
	_ = viper.BindPFlag("library.path", rootCmd.PersistentFlags().Lookup("library"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cite-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cite-engine"))
		}
	}

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers default values and environment lookup on v.
// CITE_ENGINE_SERVER_PORT overrides server.port, and so on.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 23119)
	v.SetDefault("server.base_path", "/zotxt")
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("server.debug", false)
	v.SetDefault("library.path", filepath.Join("library", "library.db"))
	v.SetDefault("library.user_library_id", 1)
	v.SetDefault("styles.default_style", "chicago-note-bibliography")
	v.SetDefault("styles.default_locale", "en-US")
	v.SetDefault("resolver.max_concurrency", 8)
	v.SetDefault("exporters.better_bibtex", true)

	v.SetEnvPrefix("CITE_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig decodes the effective configuration from v.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// openLibrary loads the configuration and opens the library store.
func openLibrary() (*library.Store, types.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, types.Config{}, err
	}
	store, err := library.Open(cfg.Library)
	if err != nil {
		return nil, types.Config{}, fmt.Errorf("opening library %s: %w", cfg.Library.Path, err)
	}
	return store, cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
