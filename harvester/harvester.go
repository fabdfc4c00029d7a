// Package harvester orchestrates the pipeline: listing discovery, per-item
// locate → fetch → extract with failure isolation, a second-pass asset
// download, and artifact generation with a final run report.
package harvester

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/harvest/artifact"
	"github.com/use-agent/harvest/assets"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/extractor"
	"github.com/use-agent/harvest/listing"
	"github.com/use-agent/harvest/locator"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

// Harvester drives one run end to end. Construct with New, call Run once.
type Harvester struct {
	cfg       *config.Config
	fetcher   *scraper.Fetcher
	locator   *locator.Locator
	extractor *extractor.Extractor
	assets    *assets.Fetcher
	source    listing.Source

	// Run state, guarded by mu when workers > 1. Counters live here and in
	// the report only; sub-components return values up the chain and never
	// touch shared state.
	mu         sync.Mutex
	report     *models.RunReport
	records    []*models.ExtractedRecord
	processed  int
	totalItems int
	started    time.Time
}

// New wires up the pipeline around a fresh rate limiter. Each Harvester
// owns its own limiter, so concurrent runs against independent sites do not
// cross-throttle.
func New(cfg *config.Config, source listing.Source) *Harvester {
	limiter := scraper.NewRateLimiter(cfg.Fetch.BaseDelay, cfg.Fetch.MaxDelay, cfg.Fetch.BackoffFactor)
	fetcher := scraper.NewFetcher(cfg.Fetch, limiter)
	if ws, ok := source.(*listing.WikiSource); ok && ws.Fetcher == nil {
		ws.Fetcher = fetcher
	}
	return &Harvester{
		cfg:       cfg,
		fetcher:   fetcher,
		locator:   locator.New(fetcher, cfg.Site, cfg.Fetch.MaxRetries),
		extractor: extractor.New(cfg.Site.BaseURL),
		assets:    assets.New(fetcher, cfg.Assets),
		source:    source,
	}
}

// Fetcher exposes the run's fetcher, e.g. for wiring a listing.WikiSource
// through the same rate limiter.
func (h *Harvester) Fetcher() *scraper.Fetcher { return h.fetcher }

// Run executes the harvest and returns the run report. On a run-level
// failure the partial report is still returned alongside the error, with
// every count and diagnostic collected up to that point intact.
func (h *Harvester) Run(ctx context.Context) (*models.RunReport, error) {
	h.report = models.NewRunReport()
	h.started = time.Now()
	defer h.report.Finalize()

	groups, err := h.source.Listing(ctx)
	if err != nil {
		h.report.AddError("listing discovery failed: %v", err)
		return h.report, models.NewHarvestError(models.ErrCodeEmptyInput, "listing discovery failed", err)
	}
	if len(groups) == 0 {
		return h.report, models.NewHarvestError(models.ErrCodeEmptyInput, "listing produced no groups", nil)
	}
	for _, g := range groups {
		h.totalItems += len(g.Items)
	}
	if h.totalItems == 0 {
		return h.report, models.NewHarvestError(models.ErrCodeEmptyInput, "listing produced no items", nil)
	}

	slog.Info("harvest starting", "groups", len(groups), "items", h.totalItems, "workers", h.workers())

	for _, g := range groups {
		if err := h.processGroup(ctx, g); err != nil {
			return h.report, err
		}
	}

	if err := h.assetPass(ctx); err != nil {
		return h.report, err
	}

	successes := make([]*models.ExtractedRecord, 0, len(h.records))
	for _, rec := range h.records {
		if rec.Found {
			successes = append(successes, rec)
		}
	}
	if len(successes) == 0 {
		return h.report, models.NewHarvestError(models.ErrCodeEmptyInput,
			"no items successfully extracted, nothing to persist", nil)
	}

	path := h.cfg.Harvest.ArtifactPath
	if err := artifact.Write(path, successes); err != nil {
		h.report.AddError("artifact write failed: %v", err)
		return h.report, err
	}
	h.report.ArtifactPath = path

	if h.cfg.Harvest.ValidateArtifact {
		if err := artifact.Validate(path); err != nil {
			h.report.AddError("artifact validation failed: %v", err)
			return h.report, err
		}
	}

	slog.Info("harvest complete",
		"total", h.report.Total,
		"succeeded", h.report.Succeeded,
		"failed", h.report.Failed,
		"assetsOK", h.report.AssetsOK(),
		"artifact", path,
	)
	return h.report, nil
}

func (h *Harvester) workers() int {
	if h.cfg.Harvest.Workers < 1 {
		return 1
	}
	return h.cfg.Harvest.Workers
}

// processGroup runs every item in the group. Groups run sequentially; items
// run sequentially too unless the worker pool is enabled, in which case a
// bounded errgroup preserves per-item atomicity while interleaving items.
func (h *Harvester) processGroup(ctx context.Context, g listing.Group) error {
	slog.Info("processing group", "label", g.Label, "items", len(g.Items))

	if h.workers() == 1 {
		for _, name := range g.Items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := h.runItem(ctx, models.WorkItem{Name: name, Group: g.Label}); err != nil {
				return err
			}
		}
		return nil
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(h.workers())
	for _, name := range g.Items {
		item := models.WorkItem{Name: name, Group: g.Label}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return h.runItem(gctx, item)
		})
	}
	return eg.Wait()
}

// runItem processes one item and folds the result into the accumulator.
// Item-local failures produce a synthesized failed record; the returned
// error is non-nil only for cancellation or a stop-on-error policy.
func (h *Harvester) runItem(ctx context.Context, item models.WorkItem) error {
	rec := h.processItem(ctx, item)
	if err := ctx.Err(); err != nil {
		return err
	}

	h.fold(rec)

	if !rec.Found && !h.cfg.Harvest.ContinueOnError {
		return fmt.Errorf("stopping run: item %q failed: %v", item.Name, rec.Diagnostics)
	}
	return nil
}

// processItem runs one item's locate → fetch → extract sequence. It never
// returns an error: every failure mode collapses into a failed record so no
// single item can abort the run.
func (h *Harvester) processItem(ctx context.Context, item models.WorkItem) (rec *models.ExtractedRecord) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic processing item", "name", item.Name, "panic", r)
			rec = models.NewFailedRecord(item.Name, item.Group, fmt.Sprintf("panic: %v", r))
		}
	}()

	pageURL, err := h.locator.Locate(ctx, item.Name)
	if err != nil {
		slog.Warn("item not located", "name", item.Name, "error", err)
		return models.NewFailedRecord(item.Name, item.Group, fmt.Sprintf("locate: %v", err))
	}

	doc, err := h.fetcher.Fetch(ctx, pageURL, h.cfg.Fetch.MaxRetries)
	if err != nil {
		slog.Warn("item fetch failed", "name", item.Name, "url", pageURL, "error", err)
		return models.NewFailedRecord(item.Name, item.Group, fmt.Sprintf("fetch: %v", err))
	}

	rec = h.extractor.Extract(doc, item)
	for _, d := range rec.Diagnostics {
		h.warn("%s: %s", item.Name, d)
	}
	return rec
}

// fold merges one finished record into the run state and emits a progress
// snapshot when due.
func (h *Harvester) fold(rec *models.ExtractedRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if rec.Found {
		h.report.RecordSuccess(rec.Group)
	} else {
		h.report.RecordFailure(rec.Group)
		h.report.AddError("%s: %s", rec.Name, firstOr(rec.Diagnostics, "failed"))
	}
	h.processed++

	every := h.cfg.Harvest.ProgressEvery
	if every > 0 && (h.processed%every == 0 || h.processed == h.totalItems) {
		elapsed := time.Since(h.started)
		var eta time.Duration
		if h.processed > 0 {
			eta = time.Duration(float64(elapsed) / float64(h.processed) * float64(h.totalItems-h.processed))
		}
		slog.Info("progress",
			"processed", h.processed,
			"total", h.totalItems,
			"percent", fmt.Sprintf("%.1f", 100*float64(h.processed)/float64(h.totalItems)),
			"elapsed", elapsed.Round(time.Second),
			"eta", eta.Round(time.Second),
		)
	}
}

func (h *Harvester) warn(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.report.AddWarning(format, args...)
}

// assetPass downloads images for every successfully extracted record that
// carries a reference. Runs after all extraction so the artifact write stays
// a single-writer step.
func (h *Harvester) assetPass(ctx context.Context) error {
	for _, rec := range h.records {
		if !rec.Found || rec.ImageRef == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		path, err := h.assets.FetchAsset(ctx, rec.Name, rec.ImageRef)
		switch {
		case err != nil:
			h.report.RecordAsset(rec.Group, false)
			h.report.AddWarning("%s: asset download failed: %v", rec.Name, err)
		case path == "":
			h.report.RecordAsset(rec.Group, false)
			h.report.AddWarning("%s: asset rejected by validation", rec.Name)
		default:
			rec.LocalAssetPath = path
			h.report.RecordAsset(rec.Group, true)
		}
	}
	return nil
}

func firstOr(ss []string, fallback string) string {
	if len(ss) > 0 {
		return ss[0]
	}
	return fallback
}
