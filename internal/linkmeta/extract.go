package linkmeta

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"

	"github.com/factbook-ai/factbook-proxy/internal/config"
)

// Extractor finds a display title in an HTML document.
type Extractor interface {
	ExtractTitle(body []byte) (string, bool)
}

// NewExtractor returns the extractor registered under name.
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case config.ExtractorRegex, "":
		return RegexExtractor{}, nil
	case config.ExtractorHTML:
		return DocumentExtractor{}, nil
	case config.ExtractorOpenGraph:
		return OpenGraphExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown title extractor %q", name)
	}
}

// The title text may not contain '<', so markup inside a title never matches.
var titleRegex = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

// RegexExtractor returns the trimmed text of the first <title> marker matched
// case-insensitively, even when that text is blank. Entities are left undecoded.
type RegexExtractor struct{}

func (RegexExtractor) ExtractTitle(body []byte) (string, bool) {
	m := titleRegex.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(string(m[1])), true
}

// DocumentExtractor parses the page and returns the text of the first <title>
// element, with entities decoded. A blank title counts as missing.
type DocumentExtractor struct{}

func (DocumentExtractor) ExtractTitle(body []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	return nonEmpty(doc.Find("title").First().Text())
}

// OpenGraphExtractor prefers og:title and falls back to the <title> element.
type OpenGraphExtractor struct{}

func (OpenGraphExtractor) ExtractTitle(body []byte) (string, bool) {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(body)); err == nil {
		if title, ok := nonEmpty(og.Title); ok {
			return title, true
		}
	}
	return DocumentExtractor{}.ExtractTitle(body)
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
