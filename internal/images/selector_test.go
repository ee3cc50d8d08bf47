package images

import (
	"testing"
)

func TestSelect_ScoringOrder(t *testing.T) {
	html := `<html><head>
<meta property="og:image" content="https://cdn.example.com/a.jpg?w=1200&h=630"/>
</head><body>
<article><img src="https://cdn.example.com/small.jpg" width="200" height="200"/></article>
<img src="https://cdn.example.com/big.jpg" width="1600" height="900"/>
</body></html>`

	got := Select([]byte(html), "https://example.com/article", 3)
	want := []string{
		"https://cdn.example.com/a.jpg?w=1200&h=630",
		"https://cdn.example.com/big.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("Select() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Select()[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestSelect_DedupesAndCaps(t *testing.T) {
	html := `<html><body>
<img src="https://cdn.example.com/photo.jpg" width="800" height="600"/>
<img src="https://cdn.example.com/photo.jpg" width="800" height="600"/>
<img src="https://cdn.example.com/photo2.jpg" width="900" height="600"/>
<img src="https://cdn.example.com/photo3.jpg" width="1000" height="700"/>
<img src="https://cdn.example.com/photo4.jpg" width="1100" height="700"/>
</body></html>`
	got := Select([]byte(html), "https://example.com/article", 3)
	if len(got) > 3 {
		t.Fatalf("Select() returned %d images, want <= 3", len(got))
	}
	seen := map[string]bool{}
	for _, u := range got {
		if seen[u] {
			t.Fatalf("Select() returned a duplicate: %v", got)
		}
		seen[u] = true
	}
}

func TestSelect_RejectsAdSize(t *testing.T) {
	html := `<html><body><img src="https://cdn.example.com/banner.jpg" width="300" height="600"/></body></html>`
	got := Select([]byte(html), "https://example.com/article", 3)
	if len(got) != 0 {
		t.Errorf("Select() = %v, want empty (known ad size)", got)
	}
}

func TestSelect_RejectsBadHintUnlessLarge(t *testing.T) {
	html := `<html><body><img src="https://cdn.example.com/site-logo.jpg" width="380" height="380"/></body></html>`
	got := Select([]byte(html), "https://example.com/article", 3)
	if len(got) != 0 {
		t.Errorf("Select() = %v, want empty (badHint + below 400/300000 threshold)", got)
	}
}

func TestBestSrcsetEntry_WidthDescriptor(t *testing.T) {
	entries := parseSrcset("a.jpg 480w, b.jpg 1000w, c.jpg 2000w")
	got := bestSrcsetEntry(entries)
	if got != "b.jpg" {
		t.Errorf("bestSrcsetEntry() = %q, want %q", got, "b.jpg")
	}
}

func TestBestSrcsetEntry_DensityDescriptor(t *testing.T) {
	entries := parseSrcset("a.jpg 1x, b.jpg 2x")
	got := bestSrcsetEntry(entries)
	if got != "b.jpg" {
		t.Errorf("bestSrcsetEntry() = %q, want %q", got, "b.jpg")
	}
}

func TestBestSrcsetEntry_NoDescriptors(t *testing.T) {
	entries := parseSrcset("a.jpg, b.jpg")
	got := bestSrcsetEntry(entries)
	if got != "b.jpg" {
		t.Errorf("bestSrcsetEntry() = %q, want last entry %q", got, "b.jpg")
	}
}

func TestBackfillDimensions_URLPattern(t *testing.T) {
	w, h := backfillDimensions("https://cdn.example.com/images/800x600/photo.jpg")
	if w != 800 || h != 600 {
		t.Errorf("backfillDimensions() = (%d, %d), want (800, 600)", w, h)
	}
}

func TestBackfillDimensions_QueryParams(t *testing.T) {
	w, h := backfillDimensions("https://cdn.example.com/photo.jpg?width=400&height=300")
	if w != 400 || h != 300 {
		t.Errorf("backfillDimensions() = (%d, %d), want (400, 300)", w, h)
	}
}
