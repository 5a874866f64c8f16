// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anyparser is the HTTP client for the Anyparser document-parsing
// service. Client satisfies loader.Backend: it uploads a file (or submits a
// URL for crawling) and decodes the response into a types.Outcome.
package anyparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/pdiddy/anyparser-loader/internal/httputil"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// DefaultAPIURL is the public Anyparser endpoint.
const DefaultAPIURL = "https://anyparserapi.com"

const (
	parsePath       = "/parse/v1"
	backendName     = "Anyparser"
	maxErrorSnippet = 256
)

// Client calls the Anyparser parse endpoint. The zero value is not usable;
// construct with NewClient.
type Client struct {
	http *http.Client
	cfg  types.LoaderConfig
}

// NewClient returns a Client for cfg. A nil httpClient gets a default client
// with cfg.Timeout.
func NewClient(cfg types.LoaderConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	cfg = cfg.WithDefaults()
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return &Client{http: httpClient, cfg: cfg}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return backendName }

// Parse submits target to the parse endpoint and decodes the outcome.
func (c *Client) Parse(ctx context.Context, target string) (types.Outcome, error) {
	body, contentType, err := c.buildForm(target)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + parsePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json, text/markdown, text/html")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	zerolog.Ctx(ctx).Debug().
		Str("endpoint", endpoint).
		Str("model", string(c.cfg.Model)).
		Int("form_bytes", len(body)).
		Msg("calling parse endpoint")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Anyparser API request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading Anyparser response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Anyparser API returned HTTP %d: %s", resp.StatusCode, snippet(data))
	}

	return decodeOutcome(data, c.cfg.Format)
}

// buildForm encodes the backend options and, in file mode, the file itself
// as multipart/form-data.
func (c *Client) buildForm(target string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := c.formFields()
	urlMode := c.cfg.Model == types.ModelCrawler || isURL(target)
	if urlMode {
		fields = append(fields, [2]string{"url", target})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", f[0], err)
		}
	}

	if !urlMode {
		if err := attachFile(w, target); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// formFields lists the option fields in a stable order. Unset optional
// options are omitted so the service applies its own defaults.
func (c *Client) formFields() [][2]string {
	cfg := c.cfg
	fields := [][2]string{
		{"format", string(cfg.Format)},
		{"model", string(cfg.Model)},
		{"encoding", string(cfg.Encoding)},
	}
	if cfg.Image != nil {
		fields = append(fields, [2]string{"image", strconv.FormatBool(*cfg.Image)})
	}
	if cfg.Table != nil {
		fields = append(fields, [2]string{"table", strconv.FormatBool(*cfg.Table)})
	}
	if len(cfg.OCRLanguage) > 0 {
		fields = append(fields, [2]string{"ocr_language", strings.Join(cfg.OCRLanguage, ",")})
	}
	if cfg.OCRPreset != "" {
		fields = append(fields, [2]string{"ocr_preset", cfg.OCRPreset})
	}
	if cfg.MaxDepth != nil {
		fields = append(fields, [2]string{"max_depth", strconv.Itoa(*cfg.MaxDepth)})
	}
	if cfg.MaxExecutions != nil {
		fields = append(fields, [2]string{"max_executions", strconv.Itoa(*cfg.MaxExecutions)})
	}
	if cfg.Strategy != "" {
		fields = append(fields, [2]string{"strategy", string(cfg.Strategy)})
	}
	if cfg.TraversalScope != "" {
		fields = append(fields, [2]string{"traversal_scope", string(cfg.TraversalScope)})
	}
	return fields
}

func attachFile(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// snippet trims data to at most maxErrorSnippet runes for error messages.
func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if utf8.RuneCountInString(s) > maxErrorSnippet {
		s = string([]rune(s)[:maxErrorSnippet]) + "..."
	}
	return s
}
