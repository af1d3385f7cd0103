package sitemap

import (
	"fmt"
	"regexp"
)

// localePattern follows the language[-REGION[-Script]] tag grammar used in
// generated filenames ("en", "en-US", "sr-SP-Cyrl", ...).
const localePattern = `[a-z]{2,3}(?:-[A-Z]{2,3}(?:-(?:Cyrl|Latn))?)?`

var localeRegex = regexp.MustCompile(`^` + localePattern + `$`)

// Matcher recognizes sitemap filenames generated for a given file prefix,
// across all cultures.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles a matcher for the sitemap-<locale>-<prefix>[-<index>].xml
// naming convention.
func NewMatcher(filePrefix string) (*Matcher, error) {
	if filePrefix == "" {
		return nil, fmt.Errorf("file prefix is required")
	}

	re, err := regexp.Compile(fmt.Sprintf(`^sitemap-%s-%s(?:-[1-9][0-9]*)?\.xml$`,
		localePattern, regexp.QuoteMeta(filePrefix)))
	if err != nil {
		return nil, fmt.Errorf("compile sitemap name pattern: %w", err)
	}

	return &Matcher{re: re}, nil
}

// IsMatch reports whether filename was generated under this matcher's prefix.
func (m *Matcher) IsMatch(filename string) bool {
	return m.re.MatchString(filename)
}

// IsMatch reports whether filename follows this generator's naming
// convention, for any culture and batch index.
func (g *Generator) IsMatch(filename string) bool {
	return g.matcher.IsMatch(filename)
}
