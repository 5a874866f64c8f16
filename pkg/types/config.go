// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds HTTP settings for the parsing backend client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no client-side timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with backend requests
	// (e.g. "anyparser-loader/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on rate-limited responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// Format is the output format requested from the parsing backend.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// IsText reports whether the format yields a single plain-text outcome.
func (f Format) IsText() bool {
	return f == FormatMarkdown || f == FormatHTML
}

// Model selects the backend processing model.
type Model string

const (
	ModelText    Model = "text"
	ModelOCR     Model = "ocr"
	ModelVLM     Model = "vlm"
	ModelLAM     Model = "lam"
	ModelCrawler Model = "crawler"
)

// Encoding is the text encoding the backend uses for its output.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin1"
)

// CrawlStrategy is the crawler's traversal order.
type CrawlStrategy string

const (
	StrategyLIFO CrawlStrategy = "LIFO"
	StrategyFIFO CrawlStrategy = "FIFO"
)

// TraversalScope limits which links the crawler follows.
type TraversalScope string

const (
	ScopeSubtree TraversalScope = "subtree"
	ScopeDomain  TraversalScope = "domain"
)

// LoaderConfig describes one load: the target (a local file or a URL) and the
// backend options forwarded untouched to the parsing service. Exactly one of
// FilePath and URL is set on a valid config.
type LoaderConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// FilePath is a local file to upload for parsing.
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty" mapstructure:"file_path"`

	// URL is a remote page to parse or the crawl start URL.
	URL string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`

	// APIKey authenticates against the parsing service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// APIURL overrides the parsing service base URL.
	APIURL string `json:"api_url,omitempty" yaml:"api_url,omitempty" mapstructure:"api_url"`

	Format   Format   `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=markdown html json"`
	Model    Model    `json:"model" yaml:"model" mapstructure:"model" validate:"omitempty,oneof=text ocr vlm lam crawler"`
	Encoding Encoding `json:"encoding" yaml:"encoding" mapstructure:"encoding" validate:"omitempty,oneof=utf-8 latin1"`

	// Image and Table toggle image and table extraction. Nil leaves the
	// backend default in place.
	Image *bool `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
	Table *bool `json:"table,omitempty" yaml:"table,omitempty" mapstructure:"table"`

	// OCRLanguage lists OCR language codes (e.g. "eng", "deu").
	OCRLanguage []string `json:"ocr_language,omitempty" yaml:"ocr_language,omitempty" mapstructure:"ocr_language"`

	// OCRPreset names a backend OCR preset (e.g. "document", "scan").
	OCRPreset string `json:"ocr_preset,omitempty" yaml:"ocr_preset,omitempty" mapstructure:"ocr_preset"`

	// Crawler options.
	MaxDepth       *int           `json:"max_depth,omitempty" yaml:"max_depth,omitempty" mapstructure:"max_depth" validate:"omitempty,gte=0"`
	MaxExecutions  *int           `json:"max_executions,omitempty" yaml:"max_executions,omitempty" mapstructure:"max_executions" validate:"omitempty,gte=0"`
	Strategy       CrawlStrategy  `json:"strategy,omitempty" yaml:"strategy,omitempty" mapstructure:"strategy" validate:"omitempty,oneof=LIFO FIFO"`
	TraversalScope TraversalScope `json:"traversal_scope,omitempty" yaml:"traversal_scope,omitempty" mapstructure:"traversal_scope" validate:"omitempty,oneof=subtree domain"`
}

// Target returns the configured file path or URL, whichever is set.
func (c LoaderConfig) Target() string {
	if c.FilePath != "" {
		return c.FilePath
	}
	return c.URL
}

// IsURLMode reports whether the loader targets a URL rather than a file.
func (c LoaderConfig) IsURLMode() bool {
	return c.FilePath == "" && c.URL != ""
}

// WithDefaults returns a copy of c with empty format, model, and encoding
// replaced by their defaults.
func (c LoaderConfig) WithDefaults() LoaderConfig {
	if c.Format == "" {
		c.Format = FormatMarkdown
	}
	if c.Model == "" {
		c.Model = ModelText
	}
	if c.Encoding == "" {
		c.Encoding = EncodingUTF8
	}
	if len(c.OCRLanguage) > 0 {
		c.OCRLanguage = append([]string(nil), c.OCRLanguage...)
	}
	return c
}

// StoreConfig holds settings for the local document store.
type StoreConfig struct {
	// DBPath is the SQLite database file (e.g. "data/documents.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MaxResults is the default number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// FileRoot is the directory file_path requests are resolved against.
	// Empty disables file_path over HTTP; only URL targets are accepted.
	FileRoot string `json:"file_root" yaml:"file_root" mapstructure:"file_root"`
}
