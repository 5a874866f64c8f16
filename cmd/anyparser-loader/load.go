// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/anyparser-loader/internal/docstore"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

var loadCmd = &cobra.Command{
	Use:   "load (--file PATH | --url URL)",
	Short: "Parse one file or URL into documents",
	Long: `Load sends a local file or a URL to Anyparser and prints the resulting
documents. Markdown and HTML formats yield one document; the json format
yields one document per result, per PDF page, or per crawled page.

Use --store to also upsert the documents into the local index.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}

	cfg := app.Loader
	cfg.FilePath, _ = cmd.Flags().GetString("file")
	cfg.URL, _ = cmd.Flags().GetString("url")
	applyLoaderFlags(cmd, &cfg)

	l, err := buildLoader(cfg)
	if err != nil {
		return err
	}

	docs, err := l.Load(ctx, document.Source{})
	if err != nil {
		return err
	}

	if store, _ := cmd.Flags().GetBool("store"); store {
		if err := storeDocuments(cmd, app.Store, docs); err != nil {
			return err
		}
	}

	output, _ := cmd.Flags().GetString("output")
	return writeDocuments(os.Stdout, docs, output)
}

// storeDocuments upserts docs into the document database.
func storeDocuments(cmd *cobra.Command, cfg types.StoreConfig, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	store, err := docstore.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.Store(cmd.Context(), docs)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored %d documents in %s\n", len(ids), store.Path())
	return nil
}

// docView is the printable form of a document.
type docView struct {
	ID       string         `json:"id" yaml:"id"`
	Content  string         `json:"content" yaml:"content"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

func writeDocuments(w io.Writer, docs []*schema.Document, output string) error {
	views := make([]docView, len(docs))
	for i, d := range docs {
		views[i] = docView{ID: d.ID, Content: d.Content, Metadata: d.MetaData}
	}

	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		for i, v := range views {
			fmt.Fprintf(w, "--- document %d/%d  source=%v", i+1, len(views), v.Metadata[types.MetaSource])
			if page, ok := v.Metadata[types.MetaPageNumber]; ok {
				fmt.Fprintf(w, "  page=%v/%v", page, v.Metadata[types.MetaTotalPages])
			}
			fmt.Fprintln(w, " ---")
			fmt.Fprintln(w, v.Content)
		}
		fmt.Fprintf(w, "\n%d documents\n", len(views))
		return nil
	default:
		return fmt.Errorf("unsupported output %q: use text, json, or yaml", output)
	}
}

func init() {
	loadCmd.Flags().String("file", "", "local file to parse")
	loadCmd.Flags().String("url", "", "URL to parse or crawl")
	loadCmd.Flags().String("output", "text", "output: text, json, or yaml")
	loadCmd.Flags().Bool("store", false, "store the documents in the local index")
	addLoaderFlags(loadCmd)

	rootCmd.AddCommand(loadCmd)
}
