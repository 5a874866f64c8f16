// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the anyparser-loader CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/anyparser-loader/internal/loader"
	"github.com/pdiddy/anyparser-loader/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the anyparser-loader CLI.
var rootCmd = &cobra.Command{
	Use:   "anyparser-loader",
	Short: "Turn Anyparser results into searchable documents",
	Long: `anyparser-loader sends files and URLs to the Anyparser parsing service and
normalizes the results into documents: one per plain-text result, one per
PDF page, and one per crawled page.

Documents can be printed, stored in a local SQLite index, searched with
full-text queries, exported, or served over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.WithContext(ctx))
		callbacks.AppendGlobalHandlers(loader.NewLogHandler(logger))

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./anyparser-loader.yaml or ~/.config/anyparser-loader/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of secret files (anyparser-api-key, anyparser-api-url)")
	rootCmd.PersistentFlags().String("db", "", "document database path (default: data/documents.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("anyparser-loader")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "anyparser-loader"))
		}
	}

	setConfigDefaults(viper.GetViper())

	viper.SetEnvPrefix("ANYPARSER_LOADER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the console logger on stderr at the --log-level level.
func newLogger(cmd *cobra.Command) (zerolog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid --log-level %q: %w", levelName, err)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
