// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/anyparser-loader/pkg/types"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string, int) string
		in   string
		n    int
		want string
	}{
		{"tail short", truncateTail, "héllo", 10, "héllo"},
		{"tail multibyte", truncateTail, strings.Repeat("ü", 12), 10, strings.Repeat("ü", 7) + "..."},
		{"head short", truncateHead, "a.pdf", 10, "a.pdf"},
		{"head multibyte", truncateHead, "/doc/" + strings.Repeat("日", 10), 8, "..." + strings.Repeat("日", 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestFormatSearchOutputMultibyte(t *testing.T) {
	doc := (&schema.Document{
		ID:      "d1",
		Content: strings.Repeat("Überprüfung ", 10),
		MetaData: map[string]any{
			types.MetaSource:     "/archiv/" + strings.Repeat("ö", 40) + ".pdf",
			types.MetaPageNumber: 3,
		},
	}).WithScore(2.5)

	var buf bytes.Buffer
	require.NoError(t, formatSearchOutput(&buf, []*schema.Document{doc}, false))
	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "2.500")
	assert.Contains(t, out, "1 results")
	assert.Contains(t, out, "...ööö")
}

func TestFormatSearchOutputEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatSearchOutput(&buf, nil, false))
	assert.Equal(t, "No results found.\n", buf.String())
}
