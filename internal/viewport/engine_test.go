package viewport

import "testing"

// Five 900x1200 pages with 180x240 thumbnails, 10px gaps.
// Main tops: 0, 1210, 2420, 3630, 4840; content height 6040.
// Thumb tops: 0, 250, 500, 750, 1000; rail content height 1240.
func newTestEngine() *Engine {
	e := NewEngine(Config{
		Threshold:  0.25,
		PageGap:    10,
		ThumbGap:   10,
		MainHeight: 900,
		RailHeight: 300,
		EdgeMargin: 20,
		EdgeStep:   20,
	})
	pages := make([]PageGeometry, 5)
	for i := range pages {
		pages[i] = PageGeometry{Ordinal: i + 1, MainW: 900, MainH: 1200, ThumbW: 180, ThumbH: 240}
	}
	e.Attach(pages)
	return e
}

func TestAttachHighlightsFirstPage(t *testing.T) {
	e := newTestEngine()
	st := e.State()
	if st.Highlighted != 1 || st.RailScrollTop != 0 || st.ContentHeight != 6040 {
		t.Fatalf("state = %+v", st)
	}
	if e.ContainerWidth() != 900 {
		t.Fatalf("ContainerWidth = %v", e.ContainerWidth())
	}
}

func TestOnlyVisiblePageIsHighlighted(t *testing.T) {
	cases := []struct {
		page    int
		top     float64
		railTop float64
	}{
		{1, 0, 0},
		{2, 1210, 220},
		{3, 2420, 470},
		{4, 3630, 720},
		{5, 4840, 940},
	}
	for _, c := range cases {
		e := newTestEngine()
		e.ScrollMain(c.top, 0)
		st := e.State()
		if st.Highlighted != c.page {
			t.Fatalf("scrollTop %v: highlighted %d, want %d", c.top, st.Highlighted, c.page)
		}
		if st.RailScrollTop != c.railTop {
			t.Fatalf("page %d: rail scrollTop %v, want %v", c.page, st.RailScrollTop, c.railTop)
		}
	}
}

func TestHighlightNeedsThreshold(t *testing.T) {
	e := newTestEngine()
	// page 2 shows 240px of 1200 (20%)
	e.ScrollMain(550, 0)
	if e.Highlighted() != 1 {
		t.Fatalf("highlighted %d below threshold", e.Highlighted())
	}
	// page 2 shows 300px (25%)
	e.ScrollMain(610, 0)
	if e.Highlighted() != 2 {
		t.Fatalf("highlighted %d at threshold", e.Highlighted())
	}
}

func TestScrollIsClamped(t *testing.T) {
	e := newTestEngine()
	e.ScrollMain(-50, -50)
	if st := e.State(); st.ScrollTop != 0 || st.ScrollLeft != 0 {
		t.Fatalf("state = %+v", st)
	}
	e.ScrollMain(1e6, 1e6)
	if st := e.State(); st.ScrollTop != 5140 || st.ScrollLeft != 0 {
		t.Fatalf("state = %+v", st)
	}
	if e.Highlighted() != 5 {
		t.Fatalf("highlighted = %d", e.Highlighted())
	}
}

func TestClickThumbnailScrollsToPageTop(t *testing.T) {
	e := newTestEngine()
	if err := e.ClickThumbnail(4); err != nil {
		t.Fatalf("ClickThumbnail: %v", err)
	}
	if st := e.State(); st.ScrollTop != 3630 || st.Highlighted != 4 {
		t.Fatalf("state = %+v", st)
	}
	if err := e.ClickThumbnail(9); err == nil {
		t.Fatal("expected error for unknown page")
	}
}

func TestEdgeScroll(t *testing.T) {
	e := newTestEngine()
	e.Resize(Point{X: 100, Y: 50}, 900, 900, 300)

	if e.EdgeScroll(Point{X: 500, Y: 55}) {
		t.Fatal("scrolled above the top")
	}
	if !e.EdgeScroll(Point{X: 500, Y: 940}) {
		t.Fatal("no scroll near the bottom edge")
	}
	if st := e.State(); st.ScrollTop != 20 {
		t.Fatalf("scrollTop = %v", st.ScrollTop)
	}
	if e.EdgeScroll(Point{X: 500, Y: 500}) {
		t.Fatal("scrolled away from edges")
	}
	if !e.EdgeScroll(Point{X: 500, Y: 60}) || e.State().ScrollTop != 0 {
		t.Fatal("no scroll near the top edge")
	}
}

func TestSurfaceBoundsAndHitTest(t *testing.T) {
	e := newTestEngine()
	e.Resize(Point{X: 100, Y: 50}, 900, 900, 300)
	e.ScrollMain(100, 0)

	r, ok := e.SurfaceBounds(2)
	if !ok || r != (Rect{X: 100, Y: 1160, W: 900, H: 1200}) {
		t.Fatalf("bounds = %v %v", r, ok)
	}
	if n, ok := e.HitTest(Point{X: 150, Y: 1170}); !ok || n != 2 {
		t.Fatalf("HitTest = %d %v", n, ok)
	}
	if _, ok := e.HitTest(Point{X: 150, Y: 1155}); ok {
		t.Fatal("hit inside the gap")
	}
}

func TestDetach(t *testing.T) {
	e := newTestEngine()
	e.ScrollMain(1210, 0)
	e.Detach()
	if e.Attached() || e.Highlighted() != 0 {
		t.Fatal("detach left state behind")
	}
	if _, ok := e.SurfaceBounds(1); ok {
		t.Fatal("bounds after detach")
	}
	e.ScrollMain(500, 0)
	if e.Highlighted() != 0 {
		t.Fatal("highlight after detach")
	}
}
