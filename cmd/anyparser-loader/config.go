// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/anyparser-loader/internal/anyparser"
	"github.com/pdiddy/anyparser-loader/internal/docstore"
	"github.com/pdiddy/anyparser-loader/internal/loader"
	"github.com/pdiddy/anyparser-loader/internal/secrets"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// appConfig mirrors the config file layout:
//
//	loader:
//	  format: json
//	  model: text
//	  timeout: 2m
//	store:
//	  db_path: data/documents.db
//	server:
//	  addr: ":8080"
//	  file_root: data/inbox
type appConfig struct {
	Loader types.LoaderConfig `mapstructure:"loader"`
	Store  types.StoreConfig  `mapstructure:"store"`
	Server types.ServerConfig `mapstructure:"server"`
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("loader.format", string(types.FormatMarkdown))
	v.SetDefault("loader.model", string(types.ModelText))
	v.SetDefault("loader.encoding", string(types.EncodingUTF8))
	v.SetDefault("loader.timeout", 5*time.Minute)
	v.SetDefault("loader.user_agent", "anyparser-loader/"+version)
	v.SetDefault("store.db_path", docstore.DefaultDBPath)
	v.SetDefault("store.max_results", 20)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.file_root", "")
}

// loadAppConfig decodes the merged viper configuration and applies the
// root --db override.
func loadAppConfig(cmd *cobra.Command) (appConfig, error) {
	var cfg appConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.DBPath = db
	}
	return cfg, nil
}

// buildLoader resolves credentials and returns a loader backed by the
// Anyparser HTTP client.
func buildLoader(cfg types.LoaderConfig) (*loader.Loader, error) {
	cfg.APIKey = loadedSecrets.Resolve(cfg.APIKey, secrets.KeyAPIKey, secrets.EnvAPIKey)
	cfg.APIURL = loadedSecrets.Resolve(cfg.APIURL, secrets.KeyAPIURL, secrets.EnvAPIURL)
	return loader.New(cfg, anyparser.NewClient(cfg, nil))
}

// mergeLoaderConfig fills fields left empty in req from base. Targets are
// never inherited.
func mergeLoaderConfig(base, req types.LoaderConfig) types.LoaderConfig {
	out := req
	if out.Timeout == 0 {
		out.Timeout = base.Timeout
	}
	if out.UserAgent == "" {
		out.UserAgent = base.UserAgent
	}
	if out.MaxRetries == 0 {
		out.MaxRetries = base.MaxRetries
	}
	if out.APIKey == "" {
		out.APIKey = base.APIKey
	}
	if out.APIURL == "" {
		out.APIURL = base.APIURL
	}
	if out.Format == "" {
		out.Format = base.Format
	}
	if out.Model == "" {
		out.Model = base.Model
	}
	if out.Encoding == "" {
		out.Encoding = base.Encoding
	}
	if out.Image == nil {
		out.Image = base.Image
	}
	if out.Table == nil {
		out.Table = base.Table
	}
	if len(out.OCRLanguage) == 0 {
		out.OCRLanguage = base.OCRLanguage
	}
	if out.OCRPreset == "" {
		out.OCRPreset = base.OCRPreset
	}
	if out.MaxDepth == nil {
		out.MaxDepth = base.MaxDepth
	}
	if out.MaxExecutions == nil {
		out.MaxExecutions = base.MaxExecutions
	}
	if out.Strategy == "" {
		out.Strategy = base.Strategy
	}
	if out.TraversalScope == "" {
		out.TraversalScope = base.TraversalScope
	}
	return out
}

// addLoaderFlags registers the backend option flags shared by load and folder.
func addLoaderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("format", "", "output format: markdown, html, or json")
	f.String("model", "", "processing model: text, ocr, vlm, lam, or crawler")
	f.String("encoding", "", "output encoding: utf-8 or latin1")
	f.Bool("image", false, "extract images")
	f.Bool("table", false, "extract tables")
	f.StringSlice("ocr-language", nil, "OCR language codes (e.g. eng,deu)")
	f.String("ocr-preset", "", "OCR preset name")
	f.Int("max-depth", 0, "crawler: maximum link depth")
	f.Int("max-executions", 0, "crawler: maximum pages fetched")
	f.String("strategy", "", "crawler: traversal order, LIFO or FIFO")
	f.String("traversal-scope", "", "crawler: subtree or domain")
	f.String("api-key", "", "Anyparser API key (default: secrets dir or ANYPARSER_API_KEY)")
	f.String("api-url", "", "Anyparser API base URL (default: secrets dir, ANYPARSER_API_URL, or "+anyparser.DefaultAPIURL+")")
	f.Duration("timeout", 0, "HTTP timeout for the parse request")
}

// applyLoaderFlags overrides cfg with every loader flag the user set.
func applyLoaderFlags(cmd *cobra.Command, cfg *types.LoaderConfig) {
	f := cmd.Flags()
	flagString(cmd, "format", &cfg.Format)
	flagString(cmd, "model", &cfg.Model)
	flagString(cmd, "encoding", &cfg.Encoding)
	flagString(cmd, "ocr-preset", &cfg.OCRPreset)
	flagString(cmd, "strategy", &cfg.Strategy)
	flagString(cmd, "traversal-scope", &cfg.TraversalScope)
	flagString(cmd, "api-key", &cfg.APIKey)
	flagString(cmd, "api-url", &cfg.APIURL)

	if f.Changed("image") {
		v, _ := f.GetBool("image")
		cfg.Image = &v
	}
	if f.Changed("table") {
		v, _ := f.GetBool("table")
		cfg.Table = &v
	}
	if f.Changed("ocr-language") {
		cfg.OCRLanguage, _ = f.GetStringSlice("ocr-language")
	}
	if f.Changed("max-depth") {
		v, _ := f.GetInt("max-depth")
		cfg.MaxDepth = &v
	}
	if f.Changed("max-executions") {
		v, _ := f.GetInt("max-executions")
		cfg.MaxExecutions = &v
	}
	if f.Changed("timeout") {
		cfg.Timeout, _ = f.GetDuration("timeout")
	}
}

func flagString[T ~string](cmd *cobra.Command, name string, dst *T) {
	if !cmd.Flags().Changed(name) {
		return
	}
	v, _ := cmd.Flags().GetString(name)
	*dst = T(v)
}
