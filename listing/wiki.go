package listing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/harvest/scraper"
)

// WikiSource discovers the listing from a wiki index page: each section
// headline becomes a group label and the links under it become item names.
type WikiSource struct {
	Fetcher    *scraper.Fetcher
	URL        string
	MaxRetries int
}

// Listing fetches the index page and walks its sections in document order.
// Sections with no item links are skipped with a log line rather than
// failing discovery.
func (w *WikiSource) Listing(ctx context.Context) ([]Group, error) {
	doc, err := w.Fetcher.Fetch(ctx, w.URL, w.MaxRetries)
	if err != nil {
		return nil, err
	}

	var groups []Group
	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		label := strings.TrimSpace(heading.Find(".mw-headline").Text())
		if label == "" {
			label = strings.TrimSpace(heading.Text())
		}
		if label == "" {
			return
		}

		items := sectionItems(heading)
		if len(items) == 0 {
			slog.Debug("section has no items", "label", label)
			return
		}
		groups = append(groups, Group{Label: label, Items: items})
	})
	return groups, nil
}

// sectionItems collects link texts from the elements between this heading
// and the next one.
func sectionItems(heading *goquery.Selection) []string {
	seen := make(map[string]struct{})
	var items []string

	for sib := heading.Next(); sib.Length() > 0; sib = sib.Next() {
		if goquery.NodeName(sib) == "h2" || goquery.NodeName(sib) == "h3" {
			break
		}
		sib.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			name := strings.TrimSpace(a.Text())
			if name == "" {
				return
			}
			if _, ok := seen[name]; ok {
				return
			}
			seen[name] = struct{}{}
			items = append(items, name)
		})
	}
	return items
}
