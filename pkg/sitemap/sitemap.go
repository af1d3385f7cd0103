// Package sitemap partitions a paged stream of URL entries into fixed-size
// named batches suitable for writing to individual sitemap files.
package sitemap

import (
	"context"
)

// Entry is a single sitemap URL record. The shape is owned by the entry
// provider and passed through unchanged into the output batch.
type Entry struct {
	Location        string `xml:"loc" json:"location"`
	LastModified    string `xml:"lastmod,omitempty" json:"lastModified,omitempty"`
	ChangeFrequency string `xml:"changefreq,omitempty" json:"changeFrequency,omitempty"`
	Priority        string `xml:"priority,omitempty" json:"priority,omitempty"`
}

// Batch is one output file's worth of entries.
type Batch struct {
	// Name is the output filename, e.g. "sitemap-en-US-products-2.xml".
	Name string

	// Entries holds the batch contents in source order.
	Entries []Entry
}

// EntrySource provides pages of sitemap entries. Implementations are
// typically remote (content store, product search) and may fail; failures
// abort the whole generation run.
type EntrySource interface {
	// FetchEntries returns up to count entries starting at offset, in a
	// stable order. A short or empty result marks the end of the stream.
	FetchEntries(ctx context.Context, offset, count int) ([]Entry, error)
}

// EntrySourceFunc adapts a function to the EntrySource interface.
type EntrySourceFunc func(ctx context.Context, offset, count int) ([]Entry, error)

// FetchEntries implements EntrySource.
func (f EntrySourceFunc) FetchEntries(ctx context.Context, offset, count int) ([]Entry, error) {
	return f(ctx, offset, count)
}
