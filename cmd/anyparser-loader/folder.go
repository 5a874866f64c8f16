// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/cloudwego/eino/components/document"
	"github.com/spf13/cobra"

	"github.com/pdiddy/anyparser-loader/internal/batch"
)

var folderCmd = &cobra.Command{
	Use:   "folder PATTERN",
	Short: "Load every file matching a glob pattern",
	Long: `Folder loads each file matching PATTERN (doublestar syntax, e.g.
"docs/**/*.pdf") with the same backend options, up to --limit files.
Files that fail are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runFolder,
}

func runFolder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}

	base := app.Loader
	base.URL = ""
	applyLoaderFlags(cmd, &base)

	factory := func(path string) (document.Loader, error) {
		cfg := base
		cfg.FilePath = path
		return buildLoader(cfg)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	result, err := batch.LoadGlob(ctx, factory, args[0], limit, os.Stdout)
	if err != nil {
		return err
	}

	if store, _ := cmd.Flags().GetBool("store"); store {
		if err := storeDocuments(cmd, app.Store, result.Documents); err != nil {
			return err
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed to load", result.Failed)
	}
	return nil
}

func init() {
	folderCmd.Flags().Int("limit", batch.DefaultLimit, "maximum number of files to load (0 = all)")
	folderCmd.Flags().Bool("store", false, "store the documents in the local index")
	addLoaderFlags(folderCmd)

	rootCmd.AddCommand(folderCmd)
}
