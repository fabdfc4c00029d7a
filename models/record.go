package models

import "fmt"

// WorkItem is one entity to be harvested, taken from a group listing.
// Created once by the listing source and consumed exactly once by the
// harvester.
type WorkItem struct {
	Name  string
	Group string
}

// ExtractedRecord holds the fields harvested for a single item.
//
// Found means "the page was located and parsed", NOT "every field
// resolved". A record with Found=true may still carry default field values;
// each unresolved field leaves a diagnostic explaining what was missing.
// Once produced the record is immutable except for LocalAssetPath, which
// the harvester attaches after the asset pass.
type ExtractedRecord struct {
	Name   string
	Group  string
	Cost   int
	Income int
	// Variant is free-text; empty when the page does not state one.
	Variant string
	// ImageRef is the absolute URL of the item's image, empty when no
	// acceptable image was found.
	ImageRef string
	// LocalAssetPath is filled in by the asset pass; empty when the asset
	// was skipped, rejected, or failed to download.
	LocalAssetPath string
	Diagnostics    []string
	Found          bool
}

// NewFailedRecord synthesizes the all-default record used when an item
// cannot be located or fetched at all.
func NewFailedRecord(name, group, diagnostic string) *ExtractedRecord {
	return &ExtractedRecord{
		Name:        name,
		Group:       group,
		Diagnostics: []string{diagnostic},
	}
}

// AddDiagnostic appends a non-fatal note describing an unresolved field or
// missing structure.
func (r *ExtractedRecord) AddDiagnostic(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}
