// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/cloudwego/eino/components/document"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/anyparser-loader/internal/docstore"
	"github.com/pdiddy/anyparser-loader/internal/server"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve load and search over HTTP",
	Long: `Serve starts an HTTP API:

  POST /api/v1/load     load a file or URL (body mirrors the loader config,
                        plus "store": true to index the result)
  GET  /api/v1/search   full-text search (?q=...&top_k=N)
  GET  /healthz         liveness

Request options not given fall back to the config file. The API key, API URL
and HTTP settings always come from the server's configuration. file_path
targets are only accepted with --file-root (or server.file_root) and must
name a file inside that directory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		app.Server.Addr = addr
	}
	if root, _ := cmd.Flags().GetString("file-root"); root != "" {
		app.Server.FileRoot = root
	}

	var store server.DocumentStore
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		s, err := docstore.NewStore(app.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	log := zerolog.Ctx(ctx)
	gin.SetMode(ginMode(log.GetLevel()))

	var opts []server.Option
	if app.Server.FileRoot != "" {
		opts = append(opts, server.WithFileRoot(app.Server.FileRoot))
	}
	srv := server.New(serveLoaderFactory(app.Loader), store, *log, opts...)
	return srv.Run(ctx, app.Server)
}

// serveLoaderFactory builds loaders for API requests. Backend options fall
// back to base; the API key, API URL and HTTP settings are always base's.
func serveLoaderFactory(base types.LoaderConfig) server.LoaderFactory {
	return func(req types.LoaderConfig) (document.Loader, error) {
		cfg := mergeLoaderConfig(base, req)
		cfg.HTTPConfig = base.HTTPConfig
		cfg.APIKey = base.APIKey
		cfg.APIURL = base.APIURL
		return buildLoader(cfg)
	}
}

// ginMode keeps gin's route dump and debug output for --log-level debug.
func ginMode(level zerolog.Level) string {
	if level <= zerolog.DebugLevel {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: config server.addr or :8080)")
	serveCmd.Flags().Bool("no-store", false, "run without the document index")
	serveCmd.Flags().String("file-root", "", "directory file_path requests may read from (default: file_path disabled)")

	rootCmd.AddCommand(serveCmd)
}
