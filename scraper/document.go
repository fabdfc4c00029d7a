package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a fetched, parsed page. It is owned by the caller that
// requested it; a failed fetch is never silently retried by handing the
// same Document out twice.
type Document struct {
	URL string
	Doc *goquery.Document
}

// Title returns the trimmed <title> text, empty when absent.
func (d *Document) Title() string {
	return strings.TrimSpace(d.Doc.Find("title").First().Text())
}

// Find delegates a selector query to the underlying goquery document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.Doc.Find(selector)
}
