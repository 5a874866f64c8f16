// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Metadata keys set on loaded documents. Consumers treat metadata as a flat
// string-keyed map with heterogeneous values.
const (
	MetaSource           = "source"
	MetaFormat           = "format"
	MetaRID              = "rid"
	MetaChecksum         = "checksum"
	MetaTotalCharacters  = "total_characters"
	MetaOriginalFilename = "original_filename"
	MetaPageNumber       = "page_number"
	MetaTotalPages       = "total_pages"
	MetaImages           = "images"
	MetaURL              = "url"
	MetaTitle            = "title"
	MetaStatusMessage    = "status_message"
	MetaStatusCode       = "status_code"
	MetaPolitenessDelay  = "politeness_delay"
	MetaCrawledAt        = "crawled_at"
)

// Keys of the image records attached to crawl documents.
const (
	ImageName  = "name"
	ImageIndex = "index"
	ImagePage  = "page"
)
