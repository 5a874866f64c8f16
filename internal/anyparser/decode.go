// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anyparser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// decodeOutcome interprets the response body for the requested format.
// Markdown and HTML bodies are text: a body that is one JSON string is
// unquoted, anything else is kept verbatim. Only the json format reads a
// leading JSON array as a result list.
func decodeOutcome(body []byte, format types.Format) (types.Outcome, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return types.PlainText(body), nil
	}

	switch {
	case trimmed[0] == '"' && gjson.ValidBytes(trimmed):
		return types.PlainText(gjson.ParseBytes(trimmed).String()), nil
	case trimmed[0] == '[' && format == types.FormatJSON:
		if !gjson.ValidBytes(trimmed) {
			return nil, fmt.Errorf("parsing Anyparser response: invalid JSON result list")
		}
		return decodeResultList(gjson.ParseBytes(trimmed))
	}
	return types.PlainText(body), nil
}

func decodeResultList(arr gjson.Result) (types.ResultList, error) {
	items := types.ResultList{}
	var err error
	arr.ForEach(func(key, value gjson.Result) bool {
		var item types.ResultItem
		item, err = decodeItem(value)
		if err != nil {
			err = fmt.Errorf("decoding result item %d: %w", key.Int(), err)
			return false
		}
		items = append(items, item)
		return true
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// decodeItem picks the variant by key presence: start_url marks a crawl
// result, an items array marks a PDF result, anything else is a base result.
func decodeItem(v gjson.Result) (types.ResultItem, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("expected object, got %s", v.Type)
	}
	raw := []byte(v.Raw)

	switch {
	case v.Get("start_url").Exists():
		var r types.CrawlResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case v.Get("items").IsArray():
		var r types.PdfResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		var r types.BaseResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}
}
