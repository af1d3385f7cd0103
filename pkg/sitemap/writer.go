package sitemap

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/JurgenV1993/BetterRetail/pkg/logging"
)

// xmlns for the sitemap protocol urlset/sitemapindex documents.
const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// IndexFilename is the name of the sitemap index file referencing all
// generated batch files.
const IndexFilename = "sitemap.xml"

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []Entry  `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Xmlns    string         `xml:"xmlns,attr"`
	Sitemaps []indexedEntry `xml:"sitemap"`
}

type indexedEntry struct {
	Location     string `xml:"loc"`
	LastModified string `xml:"lastmod"`
}

// Writer serializes batches into sitemap protocol XML files in a target
// directory.
type Writer struct {
	dir    string
	logger zerolog.Logger

	// now is swapped out in tests for deterministic lastmod values.
	now func() time.Time
}

// NewWriter creates a writer rooted at dir, creating the directory if
// needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &Writer{
		dir:    dir,
		logger: logging.NewLogger("sitemap-writer"),
		now:    time.Now,
	}, nil
}

// WriteBatch serializes one batch as a urlset document named after the
// batch. It returns the path of the written file.
func (w *Writer) WriteBatch(batch Batch) (string, error) {
	if batch.Name == "" {
		return "", fmt.Errorf("batch name is required")
	}

	doc := urlset{
		Xmlns: sitemapNamespace,
		URLs:  batch.Entries,
	}

	path := filepath.Join(w.dir, batch.Name)
	if err := w.writeDoc(path, doc); err != nil {
		return "", err
	}

	w.logger.Info().
		Str("file", batch.Name).
		Int("entries", len(batch.Entries)).
		Msg("Sitemap file written")

	return path, nil
}

// WriteIndex emits a sitemapindex document listing the given batch
// filenames under baseURL.
func (w *Writer) WriteIndex(baseURL string, names []string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("base url is required")
	}

	lastmod := w.now().UTC().Format("2006-01-02")

	doc := sitemapIndex{Xmlns: sitemapNamespace}
	for _, name := range names {
		doc.Sitemaps = append(doc.Sitemaps, indexedEntry{
			Location:     baseURL + "/" + name,
			LastModified: lastmod,
		})
	}

	path := filepath.Join(w.dir, IndexFilename)
	if err := w.writeDoc(path, doc); err != nil {
		return "", err
	}

	w.logger.Info().
		Int("sitemaps", len(names)).
		Msg("Sitemap index written")

	return path, nil
}

func (w *Writer) writeDoc(path string, doc any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return f.Close()
}
