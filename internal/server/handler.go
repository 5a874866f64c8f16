// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"github.com/pdiddy/anyparser-loader/pkg/types"
)

const msgNoStore = "document store not configured"

// loadRequest is the POST /api/v1/load body: a target, the backend options
// and a flag asking for the documents to be stored. Credentials, the API
// endpoint and HTTP settings are not accepted; unknown fields are rejected.
type loadRequest struct {
	FilePath string `json:"file_path"`
	URL      string `json:"url"`

	Format   types.Format   `json:"format"`
	Model    types.Model    `json:"model"`
	Encoding types.Encoding `json:"encoding"`

	Image       *bool    `json:"image"`
	Table       *bool    `json:"table"`
	OCRLanguage []string `json:"ocr_language"`
	OCRPreset   string   `json:"ocr_preset"`

	MaxDepth       *int                 `json:"max_depth"`
	MaxExecutions  *int                 `json:"max_executions"`
	Strategy       types.CrawlStrategy  `json:"strategy"`
	TraversalScope types.TraversalScope `json:"traversal_scope"`

	Store bool `json:"store"`
}

func (r loadRequest) loaderConfig() types.LoaderConfig {
	return types.LoaderConfig{
		FilePath:       r.FilePath,
		URL:            r.URL,
		Format:         r.Format,
		Model:          r.Model,
		Encoding:       r.Encoding,
		Image:          r.Image,
		Table:          r.Table,
		OCRLanguage:    r.OCRLanguage,
		OCRPreset:      r.OCRPreset,
		MaxDepth:       r.MaxDepth,
		MaxExecutions:  r.MaxExecutions,
		Strategy:       r.Strategy,
		TraversalScope: r.TraversalScope,
	}
}

// loadResponse is the data payload of a successful load.
type loadResponse struct {
	Documents []*schema.Document `json:"documents"`
	IDs       []string           `json:"ids,omitempty"`
}

type searchResponse struct {
	Query     string          `json:"query"`
	Documents []searchHitJSON `json:"documents"`
}

type searchHitJSON struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	MetaData map[string]any `json:"meta_data"`
}

func (s *Server) health(c *gin.Context) {
	Success(c, gin.H{"status": "ok", "store": s.store != nil})
}

func (s *Server) load(c *gin.Context) {
	var req loadRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Store && s.store == nil {
		Fail(c, http.StatusServiceUnavailable, msgNoStore)
		return
	}

	cfg := req.loaderConfig()
	if cfg.FilePath != "" {
		path, err := s.resolveFile(cfg.FilePath)
		if err != nil {
			Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		cfg.FilePath = path
	}

	ctx := c.Request.Context()
	l, err := s.newLoader(cfg)
	if err != nil {
		Fail(c, statusFor(err), err.Error())
		return
	}

	docs, err := l.Load(ctx, document.Source{})
	if err != nil {
		Fail(c, statusFor(err), err.Error())
		return
	}

	resp := loadResponse{Documents: docs}
	if resp.Documents == nil {
		resp.Documents = []*schema.Document{}
	}
	if req.Store && len(docs) > 0 {
		ids, err := s.store.Store(ctx, docs)
		if err != nil {
			Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		resp.IDs = ids
	}
	Success(c, resp)
}

// resolveFile maps a request file_path to a file inside the server's file
// root. Absolute paths, ".." segments and symlinks leaving the root are
// rejected.
func (s *Server) resolveFile(name string) (string, error) {
	if s.fileRoot == "" {
		return "", errors.New("file_path is not accepted by this server; use url")
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("file_path %q must be relative to the server file root", name)
	}

	root, err := filepath.EvalSymlinks(s.fileRoot)
	if err != nil {
		return "", fmt.Errorf("resolving server file root: %w", err)
	}
	path := filepath.Join(s.fileRoot, name)
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("file_path %q not found", name)
	}
	if rel, err := filepath.Rel(root, resolved); err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("file_path %q resolves outside the server file root", name)
	}
	return path, nil
}

func (s *Server) search(c *gin.Context) {
	if s.store == nil {
		Fail(c, http.StatusServiceUnavailable, msgNoStore)
		return
	}
	query := c.Query("q")
	if query == "" {
		Fail(c, http.StatusBadRequest, "query parameter q is required")
		return
	}

	var opts []retriever.Option
	if raw := c.Query("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Fail(c, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		opts = append(opts, retriever.WithTopK(n))
	}

	docs, err := s.store.Retrieve(c.Request.Context(), query, opts...)
	if err != nil {
		Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	hits := make([]searchHitJSON, len(docs))
	for i, d := range docs {
		hits[i] = searchHitJSON{ID: d.ID, Content: d.Content, Score: d.Score(), MetaData: d.MetaData}
	}
	Success(c, searchResponse{Query: query, Documents: hits})
}
