// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/anyparser-loader/internal/loader"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBackend struct {
	outcome types.Outcome
	err     error
}

func (f *fakeBackend) Name() string { return "Anyparser" }

func (f *fakeBackend) Parse(context.Context, string) (types.Outcome, error) {
	return f.outcome, f.err
}

type fakeStore struct {
	stored []*schema.Document
	hits   []*schema.Document
	topK   int
}

func (f *fakeStore) Store(_ context.Context, docs []*schema.Document, _ ...indexer.Option) ([]string, error) {
	f.stored = append(f.stored, docs...)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (f *fakeStore) Retrieve(_ context.Context, _ string, opts ...retriever.Option) ([]*schema.Document, error) {
	o := retriever.GetCommonOptions(&retriever.Options{}, opts...)
	if o.TopK != nil {
		f.topK = *o.TopK
	}
	return f.hits, nil
}

func factoryFor(b loader.Backend) LoaderFactory {
	return func(cfg types.LoaderConfig) (document.Loader, error) {
		return loader.New(cfg, b)
	}
}

// capturingFactory records every config it is asked to build a loader for.
func capturingFactory(b loader.Backend, got *[]types.LoaderConfig) LoaderFactory {
	return func(cfg types.LoaderConfig) (document.Loader, error) {
		*got = append(*got, cfg)
		return loader.New(cfg, b)
	}
}

// fileRoot creates each name as a small file under a fresh directory.
func fileRoot(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), []byte("x"), 0o644))
	}
	return root
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, Response) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	s := New(factoryFor(&fakeBackend{}), nil, zerolog.Nop())
	code, resp := do(t, s.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, map[string]any{"status": "ok", "store": false}, resp.Data)
}

func TestLoadMarkdown(t *testing.T) {
	root := fileRoot(t, "doc.pdf")
	s := New(factoryFor(&fakeBackend{outcome: types.PlainText("# Hello")}), nil, zerolog.Nop(), WithFileRoot(root))

	code, resp := do(t, s.Handler(), http.MethodPost, "/api/v1/load", map[string]any{
		"file_path": "doc.pdf",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Msg)

	data := resp.Data.(map[string]any)
	docs := data["documents"].([]any)
	require.Len(t, docs, 1)
	doc := docs[0].(map[string]any)
	assert.Equal(t, "# Hello", doc["content"])
	assert.Equal(t, filepath.Join(root, "doc.pdf"), doc["meta_data"].(map[string]any)["source"])
	assert.NotContains(t, data, "ids")
}

func TestLoadAndStore(t *testing.T) {
	store := &fakeStore{}
	outcome := types.ResultList{&types.BaseResult{RID: "r1", Markdown: types.Ptr("body")}}
	s := New(factoryFor(&fakeBackend{outcome: outcome}), store, zerolog.Nop(), WithFileRoot(fileRoot(t, "a.docx")))

	code, resp := do(t, s.Handler(), http.MethodPost, "/api/v1/load", map[string]any{
		"file_path": "a.docx",
		"format":    "json",
		"store":     true,
	})
	require.Equal(t, http.StatusOK, code, resp.Msg)
	require.Len(t, store.stored, 1)
	assert.Equal(t, "body", store.stored[0].Content)

	ids := resp.Data.(map[string]any)["ids"].([]any)
	require.Len(t, ids, 1)
	assert.Equal(t, store.stored[0].ID, ids[0])
}

func TestLoadErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		body    map[string]any
		status  int
		msg     string
	}{
		{
			name:    "no target",
			backend: &fakeBackend{},
			body:    map[string]any{},
			status:  http.StatusBadRequest,
			msg:     "Either file_path or url must be provided",
		},
		{
			name:    "both targets",
			backend: &fakeBackend{},
			body:    map[string]any{"file_path": "a", "url": "https://x"},
			status:  http.StatusBadRequest,
			msg:     "Only one of file_path or url should be provided",
		},
		{
			name:    "backend failure",
			backend: &fakeBackend{err: errors.New("boom")},
			body:    map[string]any{"file_path": "a.pdf"},
			status:  http.StatusBadGateway,
			msg:     "Error parsing document with Anyparser: boom",
		},
		{
			name:    "shape mismatch",
			backend: &fakeBackend{outcome: types.ResultList{}},
			body:    map[string]any{"file_path": "a.pdf", "format": "markdown"},
			status:  http.StatusBadGateway,
			msg:     "Error parsing document with Anyparser: expected string for markdown format, got list",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(factoryFor(tt.backend), nil, zerolog.Nop(), WithFileRoot(fileRoot(t, "a", "a.pdf")))
			code, resp := do(t, s.Handler(), http.MethodPost, "/api/v1/load", tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, -1, resp.Code)
			assert.Equal(t, tt.msg, resp.Msg)
		})
	}
}

func TestLoadInvalidBody(t *testing.T) {
	s := New(factoryFor(&fakeBackend{}), nil, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/load", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadRejectsTransportFields(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"api url", "api_url", "https://attacker.example"},
		{"api key", "api_key", "stolen"},
		{"timeout", "timeout", 1},
		{"max retries", "max_retries", 100},
		{"user agent", "user_agent", "evil/1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var built []types.LoaderConfig
			s := New(capturingFactory(&fakeBackend{outcome: types.PlainText("x")}, &built), nil, zerolog.Nop())
			code, resp := do(t, s.Handler(), http.MethodPost, "/api/v1/load", map[string]any{
				"url":    "https://example.com",
				tt.field: tt.value,
			})
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, resp.Msg, `unknown field "`+tt.field+`"`)
			assert.Empty(t, built, "no loader is built for a rejected request")
		})
	}
}

func TestLoadForwardsOnlyTargetAndOptions(t *testing.T) {
	var built []types.LoaderConfig
	s := New(capturingFactory(&fakeBackend{outcome: types.ResultList{}}, &built), nil, zerolog.Nop())
	code, resp := do(t, s.Handler(), http.MethodPost, "/api/v1/load", map[string]any{
		"url":             "https://example.com/docs",
		"format":          "json",
		"model":           "crawler",
		"max_depth":       2,
		"strategy":        "FIFO",
		"traversal_scope": "subtree",
		"ocr_language":    []string{"eng"},
	})
	require.Equal(t, http.StatusOK, code, resp.Msg)
	require.Len(t, built, 1)

	cfg := built[0]
	assert.Equal(t, "https://example.com/docs", cfg.URL)
	assert.Empty(t, cfg.FilePath)
	assert.Equal(t, types.FormatJSON, cfg.Format)
	assert.Equal(t, types.ModelCrawler, cfg.Model)
	require.NotNil(t, cfg.MaxDepth)
	assert.Equal(t, 2, *cfg.MaxDepth)
	assert.Equal(t, types.StrategyFIFO, cfg.Strategy)
	assert.Equal(t, types.ScopeSubtree, cfg.TraversalScope)
	assert.Equal(t, []string{"eng"}, cfg.OCRLanguage)
	assert.Empty(t, cfg.APIURL)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, types.HTTPConfig{}, cfg.HTTPConfig)
}

func TestLoadFilePathConfinedToRoot(t *testing.T) {
	root := fileRoot(t, "inside.pdf")
	outside := filepath.Join(t.TempDir(), "private.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
	symlinked := os.Symlink(outside, filepath.Join(root, "link.txt")) == nil

	type pathCase struct {
		name   string
		opts   []Option
		path   string
		status int
		msg    string
	}
	tests := []pathCase{
		{"no root configured", nil, "inside.pdf", http.StatusBadRequest, "file_path is not accepted by this server; use url"},
		{"absolute path", []Option{WithFileRoot(root)}, outside, http.StatusBadRequest, "must be relative to the server file root"},
		{"parent traversal", []Option{WithFileRoot(root)}, "../private.txt", http.StatusBadRequest, "must be relative to the server file root"},
		{"missing file", []Option{WithFileRoot(root)}, "nope.pdf", http.StatusBadRequest, `file_path "nope.pdf" not found`},
		{"inside root", []Option{WithFileRoot(root)}, "inside.pdf", http.StatusOK, "success"},
	}
	if symlinked {
		tests = append(tests, pathCase{"symlink out of root", []Option{WithFileRoot(root)}, "link.txt", http.StatusBadRequest, "resolves outside the server file root"})
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var built []types.LoaderConfig
			s := New(capturingFactory(&fakeBackend{outcome: types.PlainText("x")}, &built), nil, zerolog.Nop(), tt.opts...)
			code, resp := do(t, s.Handler(), http.MethodPost, "/api/v1/load", map[string]any{"file_path": tt.path})
			assert.Equal(t, tt.status, code)
			assert.Contains(t, resp.Msg, tt.msg)
			if tt.status != http.StatusOK {
				assert.Empty(t, built)
				return
			}
			require.Len(t, built, 1)
			assert.Equal(t, filepath.Join(root, "inside.pdf"), built[0].FilePath)
		})
	}
}

func TestLoadStoreUnavailable(t *testing.T) {
	s := New(factoryFor(&fakeBackend{outcome: types.PlainText("x")}), nil, zerolog.Nop())
	code, resp := do(t, s.Handler(), http.MethodPost, "/api/v1/load", map[string]any{
		"file_path": "a.pdf", "store": true,
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, msgNoStore, resp.Msg)
}

func TestSearch(t *testing.T) {
	hit := (&schema.Document{ID: "d1", Content: "attention", MetaData: map[string]any{"source": "a.pdf"}}).WithScore(1.5)
	store := &fakeStore{hits: []*schema.Document{hit}}
	s := New(factoryFor(&fakeBackend{}), store, zerolog.Nop())

	code, resp := do(t, s.Handler(), http.MethodGet, "/api/v1/search?q=attention&top_k=3", nil)
	require.Equal(t, http.StatusOK, code, resp.Msg)
	assert.Equal(t, 3, store.topK)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "attention", data["query"])
	docs := data["documents"].([]any)
	require.Len(t, docs, 1)
	first := docs[0].(map[string]any)
	assert.Equal(t, "d1", first["id"])
	assert.Equal(t, 1.5, first["score"])
}

func TestSearchValidation(t *testing.T) {
	store := &fakeStore{}
	s := New(factoryFor(&fakeBackend{}), store, zerolog.Nop())

	code, _ := do(t, s.Handler(), http.MethodGet, "/api/v1/search", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s.Handler(), http.MethodGet, "/api/v1/search?q=x&top_k=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	noStore := New(factoryFor(&fakeBackend{}), nil, zerolog.Nop())
	code, _ = do(t, noStore.Handler(), http.MethodGet, "/api/v1/search?q=x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&loader.ConfigurationError{Msg: "x"}))
	assert.Equal(t, http.StatusBadGateway, statusFor(&loader.NormalizationError{Backend: "Anyparser", Err: errors.New("x")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
}
