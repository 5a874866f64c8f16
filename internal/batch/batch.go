// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch loads every file matching a glob pattern, one loader per
// file, and reports per-file status.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// DefaultLimit caps how many files a folder load processes.
const DefaultLimit = 5

// Factory builds a loader for one file.
type Factory func(path string) (document.Loader, error)

// Result holds the outcome of a batch load.
type Result struct {
	Loaded    int
	Failed    int
	Documents []*schema.Document
}

// Total returns the number of files processed.
func (r Result) Total() int {
	return r.Loaded + r.Failed
}

// HasFailures reports whether any file failed to load.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Matches expands pattern (doublestar syntax, "**" allowed) into regular
// files in lexical order, keeping at most limit entries. A limit of zero or
// less keeps all matches.
func Matches(pattern string, limit int) ([]string, error) {
	found, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	files := make([]string, 0, len(found))
	for _, p := range found {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, p)
	}
	sort.Strings(files)

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// LoadGlob loads each file matching pattern through a loader built by
// factory, printing one status line per file to w and a summary at the end.
// A failing file is counted and skipped. The returned error is reserved for
// an invalid pattern or a cancelled context.
func LoadGlob(ctx context.Context, factory Factory, pattern string, limit int, w io.Writer) (Result, error) {
	files, err := Matches(pattern, limit)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		zerolog.Ctx(ctx).Warn().Str("pattern", pattern).Msg("glob matched no files")
	}

	var result Result
	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		docs, err := loadOne(ctx, factory, path)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			result.Failed++
			continue
		}

		fmt.Fprintf(w, "loaded:  %s (%d documents)\n", path, len(docs))
		result.Loaded++
		result.Documents = append(result.Documents, docs...)
	}

	fmt.Fprintf(w, "\nBatch summary: %d loaded, %d failed (total: %d, documents: %d)\n",
		result.Loaded, result.Failed, result.Total(), len(result.Documents))
	return result, nil
}

func loadOne(ctx context.Context, factory Factory, path string) ([]*schema.Document, error) {
	l, err := factory(path)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, document.Source{URI: path})
}
