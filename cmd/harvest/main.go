package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/harvester"
	"github.com/use-agent/harvest/listing"
	"github.com/use-agent/harvest/models"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest structured entity records from a wiki into a CSV artifact",
	Long: `Harvest scrapes entity pages (name, cost, income, variant, image) from a
MediaWiki-style site, tolerating missing markup and transient network
failure, and writes a validated CSV artifact plus a per-run report.

Examples:
  harvest run --base-url https://wiki.example.com --listing items.json
  harvest run --base-url https://wiki.example.com --index /wiki/Tier_List -o out.csv`,
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one harvest run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		if v, _ := cmd.Flags().GetString("base-url"); v != "" {
			cfg.Site.BaseURL = v
		}
		if v, _ := cmd.Flags().GetString("output"); v != "" {
			cfg.Harvest.ArtifactPath = v
		}
		if v, _ := cmd.Flags().GetString("asset-dir"); v != "" {
			cfg.Assets.Dir = v
		}
		if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
			cfg.Harvest.Workers = v
		}
		if cfg.Site.BaseURL == "" {
			return fmt.Errorf("--base-url or HARVEST_BASE_URL is required")
		}

		initLogger(cfg.Log)

		listingFile, _ := cmd.Flags().GetString("listing")
		indexPage, _ := cmd.Flags().GetString("index")
		if listingFile == "" && indexPage == "" {
			return fmt.Errorf("one of --listing or --index is required")
		}

		var source listing.Source
		if listingFile != "" {
			s, err := loadListingFile(listingFile)
			if err != nil {
				return err
			}
			source = s
		} else {
			// The harvester fills in its own fetcher so index discovery
			// shares the run's rate limiter.
			source = &listing.WikiSource{
				URL:        cfg.Site.BaseURL + indexPage,
				MaxRetries: cfg.Fetch.MaxRetries,
			}
		}
		h := harvester.New(cfg, source)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		report, err := h.Run(ctx)
		printReport(report)
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("base-url", "", "site base URL, e.g. https://wiki.example.com")
	runCmd.Flags().String("listing", "", "JSON file mapping group labels to item name lists")
	runCmd.Flags().String("index", "", "index page path to discover the listing from")
	runCmd.Flags().StringP("output", "o", "", "artifact path (default harvest.csv)")
	runCmd.Flags().String("asset-dir", "", "directory for downloaded images")
	runCmd.Flags().Int("workers", 0, "per-group worker count (default 1, sequential)")
	rootCmd.AddCommand(runCmd)
}

// loadListingFile reads a {"Group": ["Item", ...]} JSON mapping. Group order
// follows the sorted labels since JSON objects carry no order.
func loadListingFile(path string) (listing.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing listing: %w", err)
	}

	labels := make([]string, 0, len(raw))
	for label := range raw {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	groups := make(listing.Static, 0, len(labels))
	for _, label := range labels {
		groups = append(groups, listing.Group{Label: label, Items: raw[label]})
	}
	return groups, nil
}

func printReport(r *models.RunReport) {
	if r == nil {
		return
	}
	fmt.Printf("\nitems:    %d total, %d succeeded, %d failed\n", r.Total, r.Succeeded, r.Failed)
	fmt.Printf("assets:   %d ok, %d failed\n", r.AssetsOK(), r.AssetsFailed())
	fmt.Printf("elapsed:  %s\n", r.Elapsed.Round(10*time.Millisecond))

	labels := make([]string, 0, len(r.Groups))
	for label := range r.Groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		g := r.Groups[label]
		fmt.Printf("  %-20s %d/%d ok\n", label, g.Succeeded, g.Total)
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("warnings: %d\n", len(r.Warnings))
	}
	for _, e := range r.Errors {
		fmt.Printf("error: %s\n", e)
	}
	if r.ArtifactPath != "" {
		fmt.Printf("artifact: %s\n", r.ArtifactPath)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
