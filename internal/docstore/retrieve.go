// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

var _ retriever.Retriever = (*Store)(nil)

// QueryOptions filters structured listings and exports.
type QueryOptions struct {
	// Source filters by the document's source metadata (file path or page URL).
	Source string

	// Format filters by output format ("markdown", "html", "json").
	Format string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Retrieve runs an FTS5 match over document content and returns documents
// ranked by bm25. Each document carries its score via WithScore; higher is
// more relevant. TopK defaults to the store's MaxResults.
func (s *Store) Retrieve(ctx context.Context, query string, opts ...retriever.Option) (docs []*schema.Document, err error) {
	topK := s.maxResults
	common := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	if common.TopK != nil && *common.TopK > 0 {
		topK = *common.TopK
	}

	ctx = callbacks.EnsureRunInfo(ctx, s.GetType(), components.ComponentOfRetriever)
	ctx = callbacks.OnStart(ctx, &retriever.CallbackInput{
		Query:          query,
		TopK:           topK,
		ScoreThreshold: common.ScoreThreshold,
	})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.content, d.metadata, bm25(documents_fts) AS rank
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.rowid
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, topK)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			doc  *schema.Document
			rank float64
		)
		doc, rank, err = scanDocument(rows, true)
		if err != nil {
			return nil, err
		}
		// bm25 is lower-is-better; negate so scores rise with relevance.
		score := -rank
		if common.ScoreThreshold != nil && score < *common.ScoreThreshold {
			continue
		}
		docs = append(docs, doc.WithScore(score))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	callbacks.OnEnd(ctx, &retriever.CallbackOutput{Docs: docs})
	return docs, nil
}

// List returns stored documents matching opts, ordered by source and then
// insertion order.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]*schema.Document, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT d.id, d.content, d.metadata FROM documents d WHERE 1=1`)
	if opts.Source != "" {
		qb.WriteString(` AND d.source = ?`)
		args = append(args, opts.Source)
	}
	if opts.Format != "" {
		qb.WriteString(` AND d.format = ?`)
		args = append(args, opts.Format)
	}
	qb.WriteString(` ORDER BY d.source, d.rowid LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*schema.Document
	for rows.Next() {
		doc, _, err := scanDocument(rows, false)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(rows *sql.Rows, ranked bool) (*schema.Document, float64, error) {
	var (
		doc      schema.Document
		metaJSON sql.NullString
		rank     float64
		err      error
	)
	if ranked {
		err = rows.Scan(&doc.ID, &doc.Content, &metaJSON, &rank)
	} else {
		err = rows.Scan(&doc.ID, &doc.Content, &metaJSON)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("scanning row: %w", err)
	}

	doc.MetaData = map[string]any{}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.MetaData); err != nil {
			return nil, 0, fmt.Errorf("decoding metadata for %s: %w", doc.ID, err)
		}
		if doc.MetaData == nil {
			doc.MetaData = map[string]any{}
		}
	}
	return &doc, rank, nil
}
