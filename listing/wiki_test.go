package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/scraper"
)

const indexPage = `<html><body>
<h2><span class="mw-headline">Common</span></h2>
<ul>
  <li><a href="/wiki/Alpha">Alpha</a></li>
  <li><a href="/wiki/Beta">Beta</a></li>
  <li><a href="/wiki/Alpha">Alpha</a></li>
</ul>
<h2><span class="mw-headline">Rare</span></h2>
<table><tr><td><a href="/wiki/Gamma">Gamma</a></td></tr></table>
<h2><span class="mw-headline">Empty Section</span></h2>
<p>nothing listed yet</p>
</body></html>`

func TestWikiSource_Listing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexPage)
	}))
	defer srv.Close()

	fcfg := config.FetchConfig{
		BaseDelay:     time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
		Timeout:       5 * time.Second,
	}
	src := &WikiSource{
		Fetcher: scraper.NewFetcher(fcfg, scraper.NewRateLimiter(fcfg.BaseDelay, fcfg.MaxDelay, fcfg.BackoffFactor)),
		URL:     srv.URL + "/wiki/Tier_List",
	}

	groups, err := src.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("groups = %d (%v), want 2 (empty section skipped)", len(groups), groups)
	}
	if groups[0].Label != "Common" || groups[1].Label != "Rare" {
		t.Errorf("group order = %q, %q; want Common, Rare", groups[0].Label, groups[1].Label)
	}

	wantCommon := []string{"Alpha", "Beta"}
	if len(groups[0].Items) != len(wantCommon) {
		t.Fatalf("Common items = %v, want %v (duplicates dropped)", groups[0].Items, wantCommon)
	}
	for i, name := range wantCommon {
		if groups[0].Items[i] != name {
			t.Errorf("Common[%d] = %q, want %q", i, groups[0].Items[i], name)
		}
	}
	if len(groups[1].Items) != 1 || groups[1].Items[0] != "Gamma" {
		t.Errorf("Rare items = %v, want [Gamma]", groups[1].Items)
	}
}
