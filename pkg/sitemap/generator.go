package sitemap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/JurgenV1993/BetterRetail/pkg/logging"
)

// Prometheus metrics for sitemap generation.
var (
	sitemapBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_sitemap_batches_total",
		Help: "Total sitemap batches generated by culture",
	}, []string{"culture"})

	sitemapEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_sitemap_entries_total",
		Help: "Total sitemap entries emitted by culture",
	}, []string{"culture"})

	sitemapRunErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_sitemap_run_errors_total",
		Help: "Total sitemap generation runs aborted by an entry source failure",
	})
)

// Config holds generator configuration.
type Config struct {
	// Culture is the locale tag baked into batch names, e.g. "en-US".
	Culture string

	// FilePrefix distinguishes entry kinds within one culture, e.g.
	// "products" or "content".
	FilePrefix string

	// EntriesPerBatch is the maximum number of entries per output file.
	EntriesPerBatch int

	// Source provides the paged entry stream.
	Source EntrySource
}

// Generator drains an entry source into fixed-size named batches.
type Generator struct {
	culture         string
	prefix          string
	entriesPerBatch int
	source          EntrySource
	matcher         *Matcher
	logger          zerolog.Logger
}

// NewGenerator creates a generator. Configuration errors fail fast, before
// any entry fetch.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.EntriesPerBatch < 1 {
		return nil, fmt.Errorf("entries per batch must be positive (got %d)", cfg.EntriesPerBatch)
	}
	if !localeRegex.MatchString(cfg.Culture) {
		return nil, fmt.Errorf("invalid culture code %q", cfg.Culture)
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("entry source is required")
	}

	matcher, err := NewMatcher(cfg.FilePrefix)
	if err != nil {
		return nil, err
	}

	return &Generator{
		culture:         cfg.Culture,
		prefix:          cfg.FilePrefix,
		entriesPerBatch: cfg.EntriesPerBatch,
		source:          cfg.Source,
		matcher:         matcher,
		logger:          logging.NewLogger("sitemap"),
	}, nil
}

// Run starts a new generation run over the entry source. Runs are
// independent; constructing a new run restarts from the beginning when the
// source itself is restartable.
func (g *Generator) Run() *Run {
	return &Run{gen: g, index: 1}
}

// GenerateAll drains a full run into memory. Prefer Run/Next when batches
// are written out one at a time.
func (g *Generator) GenerateAll(ctx context.Context) ([]Batch, error) {
	var batches []Batch

	run := g.Run()
	for {
		batch, err := run.Next(ctx)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			return batches, nil
		}
		batches = append(batches, *batch)
	}
}

// Run is a single lazy pass over the entry source.
type Run struct {
	gen    *Generator
	offset int
	index  int
	done   bool
}

// Next fetches and returns the next batch. It returns (nil, nil) when the
// stream is exhausted. An entry source failure is fatal to the run: no batch
// is emitted, no retry is attempted, and the run stays terminated.
func (r *Run) Next(ctx context.Context) (*Batch, error) {
	if r.done {
		return nil, nil
	}

	g := r.gen

	entries, err := g.source.FetchEntries(ctx, r.offset, g.entriesPerBatch)
	if err != nil {
		r.done = true
		sitemapRunErrorsTotal.Inc()
		g.logger.Error().
			Err(err).
			Str("culture", g.culture).
			Int("offset", r.offset).
			Msg("Sitemap generation aborted")
		return nil, fmt.Errorf("fetch entries at offset %d: %w", r.offset, err)
	}

	if len(entries) == 0 {
		r.done = true
		return nil, nil
	}

	// A short page is the last page of data.
	short := len(entries) < g.entriesPerBatch

	batch := &Batch{
		Name:    g.batchName(r.index, short),
		Entries: entries,
	}

	sitemapBatchesTotal.WithLabelValues(g.culture).Inc()
	sitemapEntriesTotal.WithLabelValues(g.culture).Add(float64(len(entries)))

	g.logger.Debug().
		Str("culture", g.culture).
		Str("name", batch.Name).
		Int("offset", r.offset).
		Int("entries", len(entries)).
		Msg("Sitemap batch generated")

	if short {
		r.done = true
	} else {
		r.offset += g.entriesPerBatch
		r.index++
	}

	return batch, nil
}

// batchName builds the output filename. The numeric index is dropped only
// when the very first batch is also the last, so a single-file sitemap is
// published without a suffix.
func (g *Generator) batchName(index int, short bool) string {
	if short && index == 1 {
		return fmt.Sprintf("sitemap-%s-%s.xml", g.culture, g.prefix)
	}
	return fmt.Sprintf("sitemap-%s-%s-%d.xml", g.culture, g.prefix, index)
}
