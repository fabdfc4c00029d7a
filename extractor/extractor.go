// Package extractor pulls structured fields out of fetched pages using
// ordered chains of structural heuristics. Extraction never fails outright:
// anything the markup refuses to yield is downgraded to a diagnostic on the
// record.
package extractor

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

// infoBlockChain is the ordered list of selectors tried for the structured
// info block. First match wins; the order is a visible, testable list rather
// than priority hidden in error handling.
var infoBlockChain = []struct {
	name string
	sel  cascadia.Selector
}{
	{"aside.portable-infobox", cascadia.MustCompile("aside.portable-infobox")},
	{"table.infobox", cascadia.MustCompile("table.infobox")},
	{"div.infobox", cascadia.MustCompile("div.infobox")},
	{"table.wikitable", cascadia.MustCompile("table.wikitable")},
}

// blockHints qualify a container in the loose fallback scan when none of the
// structured selectors matched.
var blockHints = []string{"info", "character", "stats"}

// imageChain is the ordered list of image locations tried inside the info
// block.
var imageChain = []cascadia.Selector{
	cascadia.MustCompile(".pi-image img"),
	cascadia.MustCompile("figure img"),
	cascadia.MustCompile(".image img"),
	cascadia.MustCompile("img"),
}

// imageRejectMarkers mark UI furniture that is never the item's artwork.
var imageRejectMarkers = []string{"icon", "sprite", "badge", "logo", "button", "emoji", "flag"}

// imageKeywords qualify a whole-document image in the last-resort scan.
var imageKeywords = []string{"character", "hero", "card", "portrait", "artwork"}

// Extractor parses fetched documents into records.
type Extractor struct {
	baseURL string
}

// New creates an Extractor. baseURL absolutizes root-relative image
// references.
func New(baseURL string) *Extractor {
	return &Extractor{baseURL: strings.TrimRight(baseURL, "/")}
}

// Extract resolves every field of the record for item from doc. The record
// always comes back with Found=true (the page was located and parsed) and
// per-field misses appear as diagnostics, not errors.
func (e *Extractor) Extract(doc *scraper.Document, item models.WorkItem) *models.ExtractedRecord {
	rec := &models.ExtractedRecord{Name: item.Name, Group: item.Group, Found: true}

	block, blockName := e.findInfoBlock(doc)
	if block == nil {
		rec.AddDiagnostic("no info block found")
		slog.Debug("no info block", "name", item.Name, "url", doc.URL)
		return rec
	}
	slog.Debug("info block matched", "name", item.Name, "selector", blockName)

	e.resolveInto(rec, block, doc)
	return rec
}

// resolveInto fills the record's fields from the matched block. Each field
// resolves independently; a panic inside one structural lookup degrades to
// that field's diagnostic and never aborts the others.
func (e *Extractor) resolveInto(rec *models.ExtractedRecord, block *goquery.Selection, doc *scraper.Document) {
	rec.Cost = e.numericField(rec, block, costField)
	rec.Income = e.numericField(rec, block, incomeField)

	if res := safeResolve(func() FieldResult { return resolveText(block, variantField) }, variantField.Name); res.Resolved {
		rec.Variant = res.Text
	} else {
		rec.AddDiagnostic("%s", res.Diagnostic)
	}

	if ref := e.findImageRef(block, doc); ref != "" {
		rec.ImageRef = ref
	} else {
		rec.AddDiagnostic("no image reference found")
	}
}

func (e *Extractor) numericField(rec *models.ExtractedRecord, block *goquery.Selection, spec FieldSpec) int {
	res := safeResolve(func() FieldResult { return resolveNumeric(block, spec) }, spec.Name)
	if !res.Resolved {
		rec.AddDiagnostic("%s", res.Diagnostic)
		return 0
	}
	return res.Value
}

// safeResolve runs a field lookup, converting an unexpected panic into an
// unresolved result carrying a diagnostic.
func safeResolve(fn func() FieldResult, field string) (res FieldResult) {
	defer func() {
		if r := recover(); r != nil {
			res = FieldResult{Diagnostic: "field " + field + " unresolved"}
		}
	}()
	return fn()
}

// findInfoBlock tries the structured selector chain, then falls back to any
// container whose class or id hints at info/character/stats semantics.
func (e *Extractor) findInfoBlock(doc *scraper.Document) (*goquery.Selection, string) {
	for _, entry := range infoBlockChain {
		if sel := doc.Doc.FindMatcher(entry.sel); sel.Length() > 0 {
			return sel.First(), entry.name
		}
	}

	var hinted *goquery.Selection
	doc.Find("aside, table, div, section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		attrs := strings.ToLower(class + " " + id)
		for _, hint := range blockHints {
			if strings.Contains(attrs, hint) {
				hinted = s
				return false
			}
		}
		return true
	})
	if hinted != nil {
		return hinted, "hint-scan"
	}
	return nil, ""
}

// findImageRef walks the image heuristic chain inside the block, rejecting
// UI decoration, then falls back to a whole-document scan for an image whose
// descriptive text carries a domain keyword.
func (e *Extractor) findImageRef(block *goquery.Selection, doc *scraper.Document) string {
	for _, sel := range imageChain {
		if ref := e.firstAcceptableImage(block.FindMatcher(sel), false); ref != "" {
			return ref
		}
	}
	return e.firstAcceptableImage(doc.Find("img"), true)
}

// firstAcceptableImage returns the first normalized, non-rejected image
// reference in sel. When keywordGate is set, images also need a domain
// keyword in their alt or title text.
func (e *Extractor) firstAcceptableImage(sel *goquery.Selection, keywordGate bool) string {
	var found string
	sel.EachWithBreak(func(_ int, img *goquery.Selection) bool {
		ref, ok := img.Attr("data-src")
		if !ok || ref == "" {
			ref, _ = img.Attr("src")
		}
		if ref == "" {
			return true
		}
		lower := strings.ToLower(ref)
		for _, marker := range imageRejectMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
		if keywordGate {
			alt, _ := img.Attr("alt")
			title, _ := img.Attr("title")
			if !matchesSynonym(alt+" "+title, imageKeywords) {
				return true
			}
		}
		if normalized := e.normalizeRef(ref); normalized != "" {
			found = normalized
			return false
		}
		return true
	})
	return found
}

// normalizeRef upgrades protocol-relative and root-relative references to
// absolute form. Anything else non-absolute is dropped.
func (e *Extractor) normalizeRef(ref string) string {
	switch {
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return e.baseURL + ref
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	default:
		return ""
	}
}
