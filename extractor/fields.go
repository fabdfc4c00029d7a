package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FieldSpec names one logical field and the label synonyms that identify it
// in row-like markup.
type FieldSpec struct {
	Name     string
	Synonyms []string
}

// FieldResult is the outcome of resolving one field: either a value or a
// diagnostic, never both blank. Modelling this explicitly keeps the set of
// failed fields a first-class value instead of something inferred from logs.
type FieldResult struct {
	Value      int
	Text       string
	Resolved   bool
	Diagnostic string
}

// Default field specs for the harvested record. The synonym lists are
// matched case-insensitively against row text.
var (
	costField    = FieldSpec{Name: "cost", Synonyms: []string{"cost", "price", "cash"}}
	incomeField  = FieldSpec{Name: "income", Synonyms: []string{"income", "earnings", "profit", "per second"}}
	variantField = FieldSpec{Name: "variant", Synonyms: []string{"variant", "rarity", "edition"}}
)

// rowSelector covers key/value-like structures: classic table rows,
// portable-infobox data items, and list entries.
const rowSelector = "tr, .pi-data, .pi-item, li, dd"

// resolveNumeric scans block for a row whose text mentions one of the
// field's synonyms and parses the first numeric token in that row. When no
// row matches it probes elements whose data-source attribute names the
// field. Failure yields a diagnostic, never an error.
func resolveNumeric(block *goquery.Selection, spec FieldSpec) FieldResult {
	var result FieldResult
	block.Find(rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := row.Text()
		if !matchesSynonym(text, spec.Synonyms) {
			return true
		}
		if v, ok := parseNumericToken(text); ok {
			result = FieldResult{Value: v, Resolved: true}
			return false
		}
		return true
	})
	if result.Resolved {
		return result
	}

	block.Find("[data-source]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		attr, _ := s.Attr("data-source")
		if !matchesSynonym(attr, spec.Synonyms) {
			return true
		}
		if v, ok := parseNumericToken(s.Text()); ok {
			result = FieldResult{Value: v, Resolved: true}
			return false
		}
		return true
	})
	if result.Resolved {
		return result
	}

	return FieldResult{Diagnostic: "field " + spec.Name + " unresolved"}
}

// resolveText works like resolveNumeric but keeps the row's value text
// verbatim, with the matched label stripped off.
func resolveText(block *goquery.Selection, spec FieldSpec) FieldResult {
	var result FieldResult
	block.Find(rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := row.Text()
		if !matchesSynonym(text, spec.Synonyms) {
			return true
		}
		// Portable infoboxes separate label and value structurally.
		if v := strings.TrimSpace(row.Find(".pi-data-value, td").Last().Text()); v != "" {
			result = FieldResult{Text: v, Resolved: true}
			return false
		}
		if v := stripLabel(text, spec.Synonyms); v != "" {
			result = FieldResult{Text: v, Resolved: true}
			return false
		}
		return true
	})
	if result.Resolved {
		return result
	}
	return FieldResult{Diagnostic: "field " + spec.Name + " unresolved"}
}

func matchesSynonym(text string, synonyms []string) bool {
	lower := strings.ToLower(text)
	for _, syn := range synonyms {
		if strings.Contains(lower, syn) {
			return true
		}
	}
	return false
}

// stripLabel removes the first matched synonym label from text and trims
// separator punctuation around the remainder.
func stripLabel(text string, synonyms []string) string {
	lower := strings.ToLower(text)
	for _, syn := range synonyms {
		if i := strings.Index(lower, syn); i >= 0 {
			rest := text[:i] + text[i+len(syn):]
			return strings.Trim(strings.TrimSpace(rest), ":-– \t\n")
		}
	}
	return strings.TrimSpace(text)
}
