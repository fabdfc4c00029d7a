// Package locator resolves logical item names to page URLs using an ordered
// chain of URL variants plus a full-text search fallback.
package locator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

// excludedNamespaces are administrative/media/meta page prefixes never
// accepted from search results.
var excludedNamespaces = []string{
	"Special:", "File:", "Category:", "Template:",
	"Help:", "Talk:", "User:", "MediaWiki:",
}

// Locator finds the page URL for an item name. Results are cached per name
// for the duration of the run.
type Locator struct {
	fetcher    *scraper.Fetcher
	site       config.SiteConfig
	maxRetries int
	cache      *urlCache
}

// New creates a Locator probing the given site through fetcher.
func New(fetcher *scraper.Fetcher, site config.SiteConfig, maxRetries int) *Locator {
	return &Locator{
		fetcher:    fetcher,
		site:       site,
		maxRetries: maxRetries,
		cache:      newURLCache(),
	}
}

// Locate returns the first page URL that resolves for name. Candidates are
// probed in generation order with a cheap HEAD check; if none resolve, a
// full-text site search is scanned for the first qualifying link. Returns a
// PAGE_NOT_FOUND error only after both are exhausted.
func (l *Locator) Locate(ctx context.Context, name string) (string, error) {
	if u, ok := l.cache.get(name); ok {
		return u, nil
	}

	for _, slug := range Candidates(name, l.site.Namespace) {
		pageURL := l.pageURL(slug)
		ok, err := l.fetcher.Head(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			slog.Debug("candidate probe failed", "name", name, "url", pageURL, "error", err)
			continue
		}
		if ok {
			slog.Debug("page located", "name", name, "url", pageURL)
			l.cache.set(name, pageURL)
			return pageURL, nil
		}
	}

	if u, err := l.search(ctx, name); err == nil && u != "" {
		l.cache.set(name, u)
		return u, nil
	} else if err != nil && ctx.Err() != nil {
		return "", ctx.Err()
	}

	return "", models.NewHarvestError(models.ErrCodePageNotFound,
		fmt.Sprintf("no page found for %q", name), nil)
}

// search issues a full-text query and accepts the first result link whose
// visible text contains name (case-insensitive) and whose target is outside
// the excluded namespaces. Document order decides; there is no ranking.
func (l *Locator) search(ctx context.Context, name string) (string, error) {
	searchURL := strings.TrimRight(l.site.BaseURL, "/") + l.site.SearchPath + url.QueryEscape(name)
	doc, err := l.fetcher.Fetch(ctx, searchURL, l.maxRetries)
	if err != nil {
		slog.Debug("search fallback failed", "name", name, "error", err)
		return "", err
	}

	base, err := url.Parse(searchURL)
	if err != nil {
		return "", err
	}

	lowerName := strings.ToLower(name)
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return true
		}
		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return true
		}
		if !strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), lowerName) {
			return true
		}
		if inExcludedNamespace(resolved.Path) {
			return true
		}
		found = resolved.String()
		return false
	})

	if found != "" {
		slog.Debug("page located via search", "name", name, "url", found)
	}
	return found, nil
}

func (l *Locator) pageURL(slug string) string {
	return strings.TrimRight(l.site.BaseURL, "/") + l.site.PagePath + slug
}

func inExcludedNamespace(path string) bool {
	// Namespace prefixes appear in the final path segment, percent-decoded
	// by url.Parse already.
	seg := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		seg = path[i+1:]
	}
	for _, ns := range excludedNamespaces {
		if strings.HasPrefix(seg, ns) {
			return true
		}
	}
	return false
}
