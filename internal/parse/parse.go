// Package parse extracts a title and outlinks from fetched HTML.
package parse

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxOutlinks caps the links recorded per page so that hub pages do not
// bloat the page store.
const maxOutlinks = 200

// Summary is what the parse stage records on the page.
type Summary struct {
	Title    string
	Outlinks []string
}

// Extractor parses static HTML with goquery.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract pulls the document title and absolute http(s) outlinks from the
// body, resolving relative references against baseURL.
func (Extractor) Extract(baseURL string, body []byte) (Summary, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Summary{}, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Summary{}, fmt.Errorf("parse html: %w", err)
	}

	summary := Summary{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok {
			return true
		}
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}
		summary.Outlinks = append(summary.Outlinks, link)
		return len(summary.Outlinks) < maxOutlinks
	})
	return summary, nil
}

func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}
