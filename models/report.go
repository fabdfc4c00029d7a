package models

import (
	"fmt"
	"time"
)

// GroupStats is the per-group breakdown inside a RunReport.
type GroupStats struct {
	Total        int
	Succeeded    int
	Failed       int
	AssetsOK     int
	AssetsFailed int
}

// RunReport accumulates the outcome of one harvest run. It is mutated
// incrementally by the harvester and finalized once; after Finalize it is a
// plain value safe to hand to callers.
//
// Invariants: Succeeded+Failed == Total after every completed item, and
// AssetsOK+AssetsFailed <= Succeeded (assets are only attempted for
// successfully resolved items carrying an image reference).
type RunReport struct {
	Total     int
	Succeeded int
	Failed    int
	Groups    map[string]*GroupStats

	Warnings []string
	Errors   []string

	Elapsed      time.Duration
	ArtifactPath string

	started time.Time
}

// NewRunReport returns an empty report with the clock started.
func NewRunReport() *RunReport {
	return &RunReport{
		Groups:  make(map[string]*GroupStats),
		started: time.Now(),
	}
}

func (r *RunReport) group(label string) *GroupStats {
	g, ok := r.Groups[label]
	if !ok {
		g = &GroupStats{}
		r.Groups[label] = g
	}
	return g
}

// RecordSuccess counts one successfully resolved item in the given group.
func (r *RunReport) RecordSuccess(group string) {
	r.Total++
	r.Succeeded++
	g := r.group(group)
	g.Total++
	g.Succeeded++
}

// RecordFailure counts one failed item in the given group.
func (r *RunReport) RecordFailure(group string) {
	r.Total++
	r.Failed++
	g := r.group(group)
	g.Total++
	g.Failed++
}

// RecordAsset counts one asset attempt for a succeeded item.
func (r *RunReport) RecordAsset(group string, ok bool) {
	g := r.group(group)
	if ok {
		g.AssetsOK++
	} else {
		g.AssetsFailed++
	}
}

// AssetsOK sums asset successes across groups.
func (r *RunReport) AssetsOK() int {
	n := 0
	for _, g := range r.Groups {
		n += g.AssetsOK
	}
	return n
}

// AssetsFailed sums asset failures across groups.
func (r *RunReport) AssetsFailed() int {
	n := 0
	for _, g := range r.Groups {
		n += g.AssetsFailed
	}
	return n
}

// AddWarning appends a warning string.
func (r *RunReport) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AddError appends an error string. The run may still continue; fatal
// conditions are signalled separately by the harvester's returned error.
func (r *RunReport) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Finalize stamps the elapsed wall-clock duration.
func (r *RunReport) Finalize() {
	r.Elapsed = time.Since(r.started)
}
