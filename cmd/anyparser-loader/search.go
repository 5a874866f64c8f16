// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/pdiddy/anyparser-loader/internal/docstore"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Full-text search over stored documents",
	Long: `Search runs an FTS5 query over the local document index and lists the
best matches ranked by bm25.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}
	store, err := docstore.NewStore(app.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	var opts []retriever.Option
	if topK, _ := cmd.Flags().GetInt("top-k"); topK > 0 {
		opts = append(opts, retriever.WithTopK(topK))
	}

	docs, err := store.Retrieve(cmd.Context(), strings.Join(args, " "), opts...)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(os.Stdout, docs, jsonOutput)
}

func formatSearchOutput(w io.Writer, docs []*schema.Document, jsonOutput bool) error {
	if jsonOutput {
		views := make([]docView, len(docs))
		for i, d := range docs {
			views[i] = docView{ID: d.ID, Content: d.Content, Metadata: d.MetaData}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	if len(docs) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-7s  %-50s  %-30s  %s\n", "Rank", "Score", "Content", "Source", "Page")
	fmt.Fprintln(w, strings.Repeat("-", 105))

	for i, d := range docs {
		content := truncateTail(strings.Join(strings.Fields(d.Content), " "), 50)
		source := truncateHead(fmt.Sprint(d.MetaData[types.MetaSource]), 30)
		page := ""
		if p, ok := d.MetaData[types.MetaPageNumber]; ok {
			page = fmt.Sprint(p)
		}
		fmt.Fprintf(w, "%-4d  %-7.3f  %-50s  %-30s  %s\n", i+1, d.Score(), content, source, page)
	}

	fmt.Fprintf(w, "\n%d results\n", len(docs))
	return nil
}

// truncateTail shortens s to n runes, replacing the end with "...".
func truncateTail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// truncateHead shortens s to n runes, replacing the start with "...".
func truncateHead(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-(n-3):])
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored documents to YAML or JSON",
	Long: `Export writes the stored documents (or those matching --source and
--doc-format) to a YAML or JSON file.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = "data/export." + format
	}

	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}
	store, err := docstore.NewStore(app.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	source, _ := cmd.Flags().GetString("source")
	docFormat, _ := cmd.Flags().GetString("doc-format")
	opts := docstore.QueryOptions{Source: source, Format: docFormat}

	switch format {
	case "yaml":
		err = store.ExportYAML(cmd.Context(), out, opts)
	case "json":
		err = store.ExportJSON(cmd.Context(), out, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", out)
	return nil
}

func init() {
	searchCmd.Flags().Int("top-k", 0, "maximum results (0 = store default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("out", "", "output file (default: data/export.<format>)")
	exportCmd.Flags().String("source", "", "only export documents with this source")
	exportCmd.Flags().String("doc-format", "", "only export documents of this format (markdown, html, json)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
}
