// Package assets downloads, validates, and persists the binary images
// referenced by extracted records.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/scraper"
)

// Fetcher downloads image assets with asset-specific retry policy and
// structural validation. A rejected image yields ("", nil): rejection is a
// normal outcome, not an error.
type Fetcher struct {
	fetcher *scraper.Fetcher
	cfg     config.AssetConfig
}

// New creates an asset Fetcher sharing the scraper's rate limiter.
func New(fetcher *scraper.Fetcher, cfg config.AssetConfig) *Fetcher {
	return &Fetcher{fetcher: fetcher, cfg: cfg}
}

// FetchAsset downloads the image at ref and persists it under a
// deterministic name derived from identity. When a valid copy already
// exists and skip-existing is enabled, it is returned without network
// access. Returns the local path, or "" when the image was rejected by
// validation.
func (a *Fetcher) FetchAsset(ctx context.Context, identity, ref string) (string, error) {
	normalized, err := NormalizeRef(ref)
	if err != nil {
		return "", err
	}

	name := SanitizeIdentity(identity)
	if name == "" {
		return "", fmt.Errorf("assets: identity %q sanitizes to nothing", identity)
	}
	localPath := filepath.Join(a.cfg.Dir, name+ExtOf(normalized))

	if a.cfg.SkipExisting {
		if data, err := os.ReadFile(localPath); err == nil && a.validate(data) == nil {
			slog.Debug("asset already present", "identity", identity, "path", localPath)
			return localPath, nil
		}
	}

	data, err := a.fetcher.FetchBytes(ctx, normalized, scraper.FetchPolicy{
		MaxRetries:         a.cfg.MaxRetries,
		AggressiveThrottle: true,
	})
	if err != nil {
		return "", err
	}

	if err := a.validate(data); err != nil {
		slog.Warn("asset rejected", "identity", identity, "url", normalized, "reason", err)
		return "", nil
	}

	if err := os.MkdirAll(a.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("assets: create dir: %w", err)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write %s: %w", localPath, err)
	}

	slog.Debug("asset saved", "identity", identity, "path", localPath, "bytes", len(data))
	return localPath, nil
}

// validate checks that data decodes as an image, clears the dimension floor,
// and falls inside the aspect-ratio band.
func (a *Fetcher) validate(data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not a decodable image: %w", err)
	}
	if cfg.Width < a.cfg.MinWidth || cfg.Height < a.cfg.MinHeight {
		return fmt.Errorf("%s %dx%d below %dx%d floor", format, cfg.Width, cfg.Height, a.cfg.MinWidth, a.cfg.MinHeight)
	}
	ratio := float64(cfg.Width) / float64(cfg.Height)
	if ratio < a.cfg.MinAspect || ratio > a.cfg.MaxAspect {
		return fmt.Errorf("%s aspect ratio %.2f outside %.2f..%.2f band", format, ratio, a.cfg.MinAspect, a.cfg.MaxAspect)
	}
	return nil
}
