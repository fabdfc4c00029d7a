package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

func docFrom(t *testing.T, html string) *scraper.Document {
	t.Helper()
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test HTML: %v", err)
	}
	return &scraper.Document{URL: "https://wiki.example.com/wiki/Test", Doc: gq}
}

func hasDiagnostic(rec *models.ExtractedRecord, substr string) bool {
	for _, d := range rec.Diagnostics {
		if strings.Contains(d, substr) {
			return true
		}
	}
	return false
}

const fullPage = `<html><body>
<table class="infobox">
  <tr><td>Cost</td><td>2,500</td></tr>
  <tr><td>Income</td><td>7.2k/s</td></tr>
  <tr><td>Variant</td><td>Golden</td></tr>
  <tr><td><img src="/images/icon_coin.png"><img src="/images/hero_art.png"></td></tr>
</table>
</body></html>`

func TestExtract_FullInfobox(t *testing.T) {
	e := New("https://wiki.example.com")
	rec := e.Extract(docFrom(t, fullPage), models.WorkItem{Name: "Test", Group: "Common"})

	if !rec.Found {
		t.Fatal("record should be marked found")
	}
	if rec.Cost != 2500 {
		t.Errorf("Cost = %d, want 2500", rec.Cost)
	}
	if rec.Income != 7200 {
		t.Errorf("Income = %d, want 7200", rec.Income)
	}
	if rec.Variant != "Golden" {
		t.Errorf("Variant = %q, want %q", rec.Variant, "Golden")
	}
	if want := "https://wiki.example.com/images/hero_art.png"; rec.ImageRef != want {
		t.Errorf("ImageRef = %q, want %q (icon must be rejected)", rec.ImageRef, want)
	}
	if len(rec.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", rec.Diagnostics)
	}
}

func TestExtract_NoInfoBlock(t *testing.T) {
	e := New("https://wiki.example.com")
	rec := e.Extract(docFrom(t, `<html><body><p>just prose</p></body></html>`),
		models.WorkItem{Name: "Test", Group: "Common"})

	if !rec.Found {
		t.Fatal("a parsed page without an info block is still a found record")
	}
	if rec.Cost != 0 || rec.Income != 0 {
		t.Errorf("default fields expected, got cost=%d income=%d", rec.Cost, rec.Income)
	}
	if !hasDiagnostic(rec, "no info block found") {
		t.Errorf("missing diagnostic, got %v", rec.Diagnostics)
	}
}

func TestExtract_HintScanFallback(t *testing.T) {
	page := `<html><body>
	<div class="character-box">
	  <li>Cost 300</li>
	  <li>Income 12</li>
	</div>
	</body></html>`

	e := New("https://wiki.example.com")
	rec := e.Extract(docFrom(t, page), models.WorkItem{Name: "Test", Group: "Common"})

	if rec.Cost != 300 || rec.Income != 12 {
		t.Errorf("hint-scan block: cost=%d income=%d, want 300/12", rec.Cost, rec.Income)
	}
}

func TestExtract_PartialFields(t *testing.T) {
	page := `<html><body>
	<table class="infobox">
	  <tr><td>Cost</td><td>750</td></tr>
	</table>
	</body></html>`

	e := New("https://wiki.example.com")
	rec := e.Extract(docFrom(t, page), models.WorkItem{Name: "Test", Group: "Common"})

	if rec.Cost != 750 {
		t.Errorf("Cost = %d, want 750", rec.Cost)
	}
	if rec.Income != 0 {
		t.Errorf("unresolved Income should default to 0, got %d", rec.Income)
	}
	if !hasDiagnostic(rec, "field income unresolved") {
		t.Errorf("missing income diagnostic, got %v", rec.Diagnostics)
	}
	if !hasDiagnostic(rec, "no image reference found") {
		t.Errorf("missing image diagnostic, got %v", rec.Diagnostics)
	}
	// One field failing never blocks another.
	if !rec.Found {
		t.Error("partial record must stay found")
	}
}

func TestExtract_PortableInfoboxDataSource(t *testing.T) {
	page := `<html><body>
	<aside class="portable-infobox">
	  <div class="pi-item pi-data" data-source="cost">
	    <h3 class="pi-data-label">Base Price</h3>
	    <div class="pi-data-value">1,200</div>
	  </div>
	</aside>
	</body></html>`

	e := New("https://wiki.example.com")
	rec := e.Extract(docFrom(t, page), models.WorkItem{Name: "Test", Group: "Rare"})

	if rec.Cost != 1200 {
		t.Errorf("Cost via data-source probe = %d, want 1200", rec.Cost)
	}
}

func TestExtract_ImageFallbackScan(t *testing.T) {
	page := `<html><body>
	<table class="infobox"><tr><td>Cost 10</td></tr></table>
	<img src="//cdn.example.com/ui/logo.png" alt="site logo">
	<img src="//cdn.example.com/art/big.png" alt="character artwork">
	</body></html>`

	e := New("https://wiki.example.com")
	rec := e.Extract(docFrom(t, page), models.WorkItem{Name: "Test", Group: "Common"})

	if want := "https://cdn.example.com/art/big.png"; rec.ImageRef != want {
		t.Errorf("ImageRef = %q, want %q", rec.ImageRef, want)
	}
}

func TestExtract_ProtocolRelativeImage(t *testing.T) {
	page := `<html><body>
	<table class="infobox">
	  <tr><td><img data-src="//static.example.com/img/hero.png" src="data:image/gif;base64,x"></td></tr>
	</table>
	</body></html>`

	e := New("https://wiki.example.com")
	rec := e.Extract(docFrom(t, page), models.WorkItem{Name: "Test", Group: "Common"})

	if want := "https://static.example.com/img/hero.png"; rec.ImageRef != want {
		t.Errorf("ImageRef = %q, want %q (data-src preferred, protocol upgraded)", rec.ImageRef, want)
	}
}
