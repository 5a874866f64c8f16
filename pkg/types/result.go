// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Outcome is the raw value the parsing backend returns for one parse call.
// It is either PlainText (markdown and html formats) or ResultList (json).
type Outcome interface {
	// Kind names the outcome shape for error messages ("string" or "list").
	Kind() string
	isOutcome()
}

// PlainText is a markdown or html outcome.
type PlainText string

func (PlainText) Kind() string { return "string" }
func (PlainText) isOutcome()   {}

// ResultList is a json outcome: one item per parsed input.
type ResultList []ResultItem

func (ResultList) Kind() string { return "list" }
func (ResultList) isOutcome()   {}

// ResultItem is one element of a ResultList. The set of variants is closed:
// *BaseResult, *PdfResult, and *CrawlResult.
type ResultItem interface {
	isResultItem()
}

// BaseResult is a single-document result without page structure.
type BaseResult struct {
	RID              string  `json:"rid"`
	Checksum         string  `json:"checksum"`
	OriginalFilename string  `json:"original_filename"`
	TotalCharacters  int     `json:"total_characters"`
	Markdown         *string `json:"markdown,omitempty"`
}

// PdfResult is a paginated result for a PDF input.
type PdfResult struct {
	RID              string    `json:"rid"`
	Checksum         string    `json:"checksum"`
	OriginalFilename string    `json:"original_filename"`
	TotalCharacters  int       `json:"total_characters"`
	Pages            []PdfPage `json:"items"`
}

// PdfPage is one page of a PdfResult. PageNumber is whatever the backend
// reported and is not renumbered.
type PdfPage struct {
	PageNumber int      `json:"page_number"`
	Markdown   *string  `json:"markdown,omitempty"`
	Text       *string  `json:"text,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// CrawlResult is a multi-page result produced by the crawler model.
type CrawlResult struct {
	StartURL        string      `json:"start_url"`
	TotalCharacters int         `json:"total_characters"`
	Pages           []URLResult `json:"items"`
}

// URLResult is one crawled page.
type URLResult struct {
	URL             string       `json:"url"`
	Title           string       `json:"title"`
	StatusCode      int          `json:"status_code"`
	StatusMessage   string       `json:"status_message"`
	PolitenessDelay int          `json:"politeness_delay"`
	TotalCharacters int          `json:"total_characters"`
	CrawledAt       string       `json:"crawled_at"`
	Markdown        *string      `json:"markdown,omitempty"`
	Text            *string      `json:"text,omitempty"`
	Images          []CrawlImage `json:"images,omitempty"`
}

// CrawlImage references an image found on a crawled page.
type CrawlImage struct {
	DisplayName string `json:"display_name"`
	ImageIndex  int    `json:"image_index"`
	Page        int    `json:"page"`
}

func (*BaseResult) isResultItem()  {}
func (*PdfResult) isResultItem()   {}
func (*CrawlResult) isResultItem() {}

// FirstText returns the first non-empty candidate, or "" when none is set.
// Callers pass markdown before text.
func FirstText(candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return ""
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
