// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// normalize turns a backend outcome into documents. It never returns a
// partial list: on error the documents built so far are dropped.
func normalize(format types.Format, target string, outcome types.Outcome) ([]*schema.Document, error) {
	if format.IsText() {
		text, ok := outcome.(types.PlainText)
		if !ok {
			return nil, fmt.Errorf("expected string for %s format, got %s", format, kindOf(outcome))
		}
		return []*schema.Document{{
			Content: string(text),
			MetaData: map[string]any{
				types.MetaSource: target,
				types.MetaFormat: string(format),
			},
		}}, nil
	}

	list, ok := outcome.(types.ResultList)
	if !ok {
		return nil, fmt.Errorf("expected list for %s format, got %s", format, kindOf(outcome))
	}

	var docs []*schema.Document
	for i, item := range list {
		switch it := item.(type) {
		case *types.BaseResult:
			docs = append(docs, fromBase(format, target, it))
		case *types.PdfResult:
			docs = append(docs, fromPdf(format, target, it)...)
		case *types.CrawlResult:
			docs = append(docs, fromCrawl(format, it)...)
		default:
			return nil, fmt.Errorf("unsupported result item %d: %T", i, item)
		}
	}
	return docs, nil
}

func kindOf(o types.Outcome) string {
	if o == nil {
		return "nil"
	}
	return o.Kind()
}

func fromBase(format types.Format, target string, r *types.BaseResult) *schema.Document {
	return &schema.Document{
		Content: types.FirstText(r.Markdown),
		MetaData: map[string]any{
			types.MetaSource:           target,
			types.MetaFormat:           string(format),
			types.MetaRID:              r.RID,
			types.MetaChecksum:         r.Checksum,
			types.MetaTotalCharacters:  r.TotalCharacters,
			types.MetaOriginalFilename: r.OriginalFilename,
		},
	}
}

// fromPdf emits one document per page. Result-level fields come from the
// parent; page_number is the backend's own value.
func fromPdf(format types.Format, target string, r *types.PdfResult) []*schema.Document {
	docs := make([]*schema.Document, 0, len(r.Pages))
	for _, page := range r.Pages {
		images := page.Images
		if images == nil {
			images = []string{}
		}
		docs = append(docs, &schema.Document{
			Content: types.FirstText(page.Markdown, page.Text),
			MetaData: map[string]any{
				types.MetaSource:           target,
				types.MetaFormat:           string(format),
				types.MetaPageNumber:       page.PageNumber,
				types.MetaTotalPages:       len(r.Pages),
				types.MetaRID:              r.RID,
				types.MetaChecksum:         r.Checksum,
				types.MetaTotalCharacters:  r.TotalCharacters,
				types.MetaOriginalFilename: r.OriginalFilename,
				types.MetaImages:           images,
			},
		})
	}
	return docs
}

// fromCrawl emits one document per crawled page, numbered 1..N. The source
// is the page's own URL, not the crawl start.
func fromCrawl(format types.Format, r *types.CrawlResult) []*schema.Document {
	docs := make([]*schema.Document, 0, len(r.Pages))
	for i, page := range r.Pages {
		images := make([]map[string]any, 0, len(page.Images))
		for _, img := range page.Images {
			images = append(images, map[string]any{
				types.ImageName:  img.DisplayName,
				types.ImageIndex: img.ImageIndex,
				types.ImagePage:  img.Page,
			})
		}
		docs = append(docs, &schema.Document{
			Content: types.FirstText(page.Markdown, page.Text),
			MetaData: map[string]any{
				types.MetaSource:          page.URL,
				types.MetaFormat:          string(format),
				types.MetaPageNumber:      i + 1,
				types.MetaTotalPages:      len(r.Pages),
				types.MetaURL:             page.URL,
				types.MetaTitle:           page.Title,
				types.MetaStatusMessage:   page.StatusMessage,
				types.MetaStatusCode:      page.StatusCode,
				types.MetaPolitenessDelay: page.PolitenessDelay,
				types.MetaTotalCharacters: page.TotalCharacters,
				types.MetaCrawledAt:       page.CrawledAt,
				types.MetaImages:          images,
			},
		})
	}
	return docs
}
