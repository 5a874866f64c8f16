// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anyparser

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/anyparser-loader/internal/httputil"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// capturedForm is what the fake service saw on one request.
type capturedForm struct {
	path     string
	auth     string
	fields   map[string]string
	filename string
	file     string
}

func newParseServer(t *testing.T, status int, body string, got *capturedForm) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.auth = r.Header.Get("Authorization")
			got.fields = map[string]string{}
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				for k, v := range r.MultipartForm.Value {
					got.fields[k] = v[0]
				}
				if fhs := r.MultipartForm.File["files"]; len(fhs) > 0 {
					got.filename = fhs[0].Filename
					f, err := fhs[0].Open()
					if err == nil {
						data, _ := io.ReadAll(f)
						f.Close()
						got.file = string(data)
					}
				}
			}
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.LoaderConfig{FilePath: "a.pdf"}, nil)
	assert.Equal(t, "Anyparser", c.Name())
	assert.Equal(t, DefaultAPIURL, c.cfg.APIURL)
	assert.Equal(t, types.FormatMarkdown, c.cfg.Format)
	assert.Equal(t, types.ModelText, c.cfg.Model)
	assert.Equal(t, types.EncodingUTF8, c.cfg.Encoding)
	assert.NotNil(t, c.http)
}

func TestParseFileUpload(t *testing.T) {
	var got capturedForm
	ts := newParseServer(t, http.StatusOK, "# Title\n\nBody", &got)
	path := writeTempFile(t, "report.txt", "hello anyparser")

	cfg := types.LoaderConfig{
		FilePath:    path,
		APIKey:      "secret",
		APIURL:      ts.URL + "/",
		Image:       types.Ptr(true),
		Table:       types.Ptr(false),
		OCRLanguage: []string{"eng", "deu"},
		OCRPreset:   "document",
	}
	c := NewClient(cfg, ts.Client())

	outcome, err := c.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, types.PlainText("# Title\n\nBody"), outcome)

	assert.Equal(t, "/parse/v1", got.path)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.Equal(t, "report.txt", got.filename)
	assert.Equal(t, "hello anyparser", got.file)
	assert.Equal(t, map[string]string{
		"format":       "markdown",
		"model":        "text",
		"encoding":     "utf-8",
		"image":        "true",
		"table":        "false",
		"ocr_language": "eng,deu",
		"ocr_preset":   "document",
	}, got.fields)
}

func TestParseCrawlerSendsURL(t *testing.T) {
	var got capturedForm
	ts := newParseServer(t, http.StatusOK, `[]`, &got)

	cfg := types.LoaderConfig{
		URL:            "https://example.com/docs",
		APIURL:         ts.URL,
		Format:         types.FormatJSON,
		Model:          types.ModelCrawler,
		MaxDepth:       types.Ptr(2),
		MaxExecutions:  types.Ptr(10),
		Strategy:       types.StrategyFIFO,
		TraversalScope: types.ScopeSubtree,
	}
	c := NewClient(cfg, ts.Client())

	outcome, err := c.Parse(context.Background(), cfg.URL)
	require.NoError(t, err)
	assert.Equal(t, types.ResultList{}, outcome)

	assert.Empty(t, got.filename, "crawler mode uploads no file")
	assert.Empty(t, got.auth)
	assert.Equal(t, "https://example.com/docs", got.fields["url"])
	assert.Equal(t, "crawler", got.fields["model"])
	assert.Equal(t, "json", got.fields["format"])
	assert.Equal(t, "2", got.fields["max_depth"])
	assert.Equal(t, "10", got.fields["max_executions"])
	assert.Equal(t, "FIFO", got.fields["strategy"])
	assert.Equal(t, "subtree", got.fields["traversal_scope"])
}

func TestParseURLTargetWithoutCrawler(t *testing.T) {
	var got capturedForm
	ts := newParseServer(t, http.StatusOK, "<p>hi</p>", &got)

	cfg := types.LoaderConfig{URL: "https://example.com/page", APIURL: ts.URL, Format: types.FormatHTML}
	c := NewClient(cfg, ts.Client())

	outcome, err := c.Parse(context.Background(), cfg.URL)
	require.NoError(t, err)
	assert.Equal(t, types.PlainText("<p>hi</p>"), outcome)
	assert.Equal(t, "https://example.com/page", got.fields["url"])
	assert.Empty(t, got.filename)
}

func TestParseMarkdownLeadingLink(t *testing.T) {
	body := "[Home](https://example.com) | [Docs](https://example.com/docs)\n\n# Title\n"
	ts := newParseServer(t, http.StatusOK, body, nil)
	path := writeTempFile(t, "nav.html", "<a href=\"/\">Home</a>")

	c := NewClient(types.LoaderConfig{APIURL: ts.URL, Format: types.FormatMarkdown}, ts.Client())
	outcome, err := c.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, types.PlainText(body), outcome)
}

func TestParseMissingFile(t *testing.T) {
	c := NewClient(types.LoaderConfig{APIURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Parse(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening")
}

func TestParseHTTPError(t *testing.T) {
	ts := newParseServer(t, http.StatusUnauthorized, `{"message":"invalid api key"}`, nil)
	path := writeTempFile(t, "a.txt", "x")

	c := NewClient(types.LoaderConfig{APIURL: ts.URL}, ts.Client())
	_, err := c.Parse(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, `Anyparser API returned HTTP 401: {"message":"invalid api key"}`, err.Error())
}

func TestParseRetriesThrottled(t *testing.T) {
	orig := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { httputil.RetryBaseDelay = orig })

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer ts.Close()

	path := writeTempFile(t, "a.txt", "x")
	c := NewClient(types.LoaderConfig{APIURL: ts.URL}, ts.Client())
	outcome, err := c.Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, types.PlainText("ok"), outcome)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("x", maxErrorSnippet+50)
	s := snippet([]byte(long))
	assert.Len(t, s, maxErrorSnippet+3)
	assert.Equal(t, "...", s[len(s)-3:])
	assert.Equal(t, "short", snippet([]byte("  short\n")))
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("é", maxErrorSnippet+10)
	s := snippet([]byte(long))
	assert.True(t, utf8.ValidString(s))
	assert.Equal(t, maxErrorSnippet+3, utf8.RuneCountInString(s))
	assert.Equal(t, strings.Repeat("é", maxErrorSnippet)+"...", s)
}
