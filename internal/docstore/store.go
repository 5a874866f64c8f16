// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docstore persists loaded documents in SQLite and serves full-text
// retrieval over them. Store implements the eino indexer.Indexer and
// retriever.Retriever interfaces so it can sit behind a loader in a chain.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// DefaultDBPath is used when StoreConfig.DBPath is empty.
const DefaultDBPath = "data/documents.db"

const (
	defaultMaxResults = 20
	storeType         = "AnyparserSQLite"
)

var _ indexer.Indexer = (*Store)(nil)

// Store manages the document SQLite database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
}

// NewStore opens or creates the database at cfg.DBPath, creating parent
// directories and the schema when missing.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	path := cfg.DBPath
	if path == "" {
		path = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, path: path, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// GetType names the component for eino callbacks.
func (s *Store) GetType() string { return storeType }

// IsCallbacksEnabled reports that Store triggers callbacks itself.
func (s *Store) IsCallbacksEnabled() bool { return true }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			source TEXT,
			format TEXT,
			metadata TEXT,
			stored_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_format ON documents(format)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 mirror kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE documents_fts USING fts5(content, content=documents, content_rowid=rowid)`,
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Store upserts docs by ID in a single transaction and returns their IDs in
// input order. Documents without an ID get a random one.
func (s *Store) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) (ids []string, err error) {
	ctx = callbacks.EnsureRunInfo(ctx, s.GetType(), components.ComponentOfIndexer)
	ctx = callbacks.OnStart(ctx, &indexer.CallbackInput{Docs: docs})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	ids, err = s.upsert(ctx, docs)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Int("documents", len(ids)).Str("db", s.path).Msg("stored documents")
	callbacks.OnEnd(ctx, &indexer.CallbackOutput{IDs: ids})
	return ids, nil
}

func (s *Store) upsert(ctx context.Context, docs []*schema.Document) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, content, source, format, metadata, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, source=excluded.source, format=excluded.format,
			metadata=excluded.metadata, stored_at=excluded.stored_at`)
	if err != nil {
		return nil, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, 0, len(docs))
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("document %d is nil", i)
		}
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}

		metaJSON, err := json.Marshal(doc.MetaData)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata for %s: %w", id, err)
		}

		if _, err := stmt.ExecContext(ctx,
			id, doc.Content, metaString(doc.MetaData, types.MetaSource),
			metaString(doc.MetaData, types.MetaFormat), string(metaJSON), now,
		); err != nil {
			return nil, fmt.Errorf("upserting document %s: %w", id, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing documents: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
