// Package pagination computes bounded page-link windows for search result
// listings.
package pagination

import (
	"fmt"
	"strconv"
)

// Default display names for the navigation links. Callers rendering a
// localized storefront override these via Request.PreviousLabel/NextLabel.
const (
	DefaultPreviousLabel = "Previous"
	DefaultNextLabel     = "Next"
)

// URLGenerator produces the browse URL for a given page number. The page
// number is passed explicitly so the generator never depends on shared
// mutable request state.
type URLGenerator func(page int) string

// Request describes one pagination computation.
type Request struct {
	// TotalCount is the total number of results across all pages.
	TotalCount int

	// ItemsPerPage is the page size used to derive the page count.
	ItemsPerPage int

	// CurrentPage is the 1-based page the shopper is on. It is
	// caller-supplied and may exceed the total page count; the builder
	// produces a best-effort window in that case.
	CurrentPage int

	// MaxVisiblePages bounds how many page links are emitted.
	MaxVisiblePages int

	// GenerateURL builds the URL for a page link.
	GenerateURL URLGenerator

	// PreviousLabel and NextLabel override the navigation link display
	// names when non-empty.
	PreviousLabel string
	NextLabel     string
}

// PageLink is a single rendered pagination link.
type PageLink struct {
	DisplayName string
	URL         string
	IsCurrent   bool
}

// Result is the computed pagination window.
type Result struct {
	Previous   PageLink
	Next       PageLink
	Pages      []PageLink
	TotalPages int
}

// Build computes the page-link window for req.
//
// The window is centered on the current page where possible and clamped to
// [1, totalPages]. A zero result count yields an empty window with both
// navigation links disabled.
func Build(req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	totalPages := 0
	if req.TotalCount > 0 {
		totalPages = (req.TotalCount + req.ItemsPerPage - 1) / req.ItemsPerPage
	}

	result := Result{
		TotalPages: totalPages,
		Previous:   previousLink(req),
		Next:       nextLink(req, totalPages),
	}

	if totalPages == 0 {
		return result, nil
	}

	start, end := window(req.CurrentPage, totalPages, req.MaxVisiblePages)

	result.Pages = make([]PageLink, 0, end-start+1)
	for page := start; page <= end; page++ {
		result.Pages = append(result.Pages, PageLink{
			DisplayName: strconv.Itoa(page),
			URL:         req.GenerateURL(page),
			IsCurrent:   page == req.CurrentPage,
		})
	}

	return result, nil
}

// window returns the inclusive [start, end] page range to display.
func window(currentPage, totalPages, maxVisible int) (start, end int) {
	if totalPages <= maxVisible {
		return 1, totalPages
	}

	half := maxVisible / 2

	start = currentPage - half
	if start < 1 {
		return 1, maxVisible
	}

	// For even window sizes the end is pulled in by one so the window
	// stays exactly maxVisible wide. Emitted URLs depend on this
	// adjustment, so it must not change without a product decision.
	end = currentPage + half
	if maxVisible%2 == 0 {
		end--
	}

	if end > totalPages {
		return totalPages - maxVisible + 1, totalPages
	}

	return start, end
}

// previousLink builds the "previous page" navigation link. The link is
// disabled (empty URL, marked current) on the first page.
func previousLink(req Request) PageLink {
	link := PageLink{DisplayName: labelOr(req.PreviousLabel, DefaultPreviousLabel)}

	if req.CurrentPage > 1 {
		link.URL = req.GenerateURL(req.CurrentPage - 1)
	} else {
		link.IsCurrent = true
	}

	return link
}

// nextLink builds the "next page" navigation link, disabled on or past the
// last page.
func nextLink(req Request, totalPages int) PageLink {
	link := PageLink{DisplayName: labelOr(req.NextLabel, DefaultNextLabel)}

	if req.CurrentPage < totalPages {
		link.URL = req.GenerateURL(req.CurrentPage + 1)
	} else {
		link.IsCurrent = true
	}

	return link
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

func validate(req Request) error {
	if req.TotalCount < 0 {
		return fmt.Errorf("total count must not be negative (got %d)", req.TotalCount)
	}
	if req.ItemsPerPage < 1 {
		return fmt.Errorf("items per page must be positive (got %d)", req.ItemsPerPage)
	}
	if req.CurrentPage < 1 {
		return fmt.Errorf("current page must be positive (got %d)", req.CurrentPage)
	}
	if req.MaxVisiblePages < 1 {
		return fmt.Errorf("max visible pages must be positive (got %d)", req.MaxVisiblePages)
	}
	if req.GenerateURL == nil {
		return fmt.Errorf("url generator is required")
	}
	return nil
}
