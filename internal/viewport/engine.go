package viewport

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// smoothSteps is how many frames a smooth scroll takes.
const smoothSteps = 8

// Config holds the geometry defaults.
type Config struct {
	Threshold  float64
	PageGap    float64
	ThumbGap   float64
	MainHeight float64
	RailHeight float64
	EdgeMargin float64
	EdgeStep   float64
}

// PageGeometry is the pixel size of one page's main and thumbnail surfaces.
type PageGeometry struct {
	Ordinal int
	MainW   float64
	MainH   float64
	ThumbW  float64
	ThumbH  float64
}

type placed struct {
	geo      PageGeometry
	top      float64
	thumbTop float64
}

// State is a snapshot of the scroll model.
type State struct {
	Highlighted    int     `json:"highlighted"`
	ScrollTop      float64 `json:"scroll_top"`
	ScrollLeft     float64 `json:"scroll_left"`
	RailScrollTop  float64 `json:"rail_scroll_top"`
	ContentHeight  float64 `json:"content_height"`
	ContentWidth   float64 `json:"content_width"`
	RailHeight     float64 `json:"rail_height"`
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Engine owns the scroll positions of the main view and the rail.
// It is not safe for concurrent use.
type Engine struct {
	cfg Config

	origin     Point
	viewW      float64
	viewH      float64
	railH      float64
	scrollTop  float64
	scrollLeft float64
	railTop    float64

	pages          []placed
	contentH       float64
	contentW       float64
	railContentH   float64
	containerWidth float64

	highlighted int
	observer    *Observer
}

func NewEngine(cfg Config) *Engine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.25
	}
	if cfg.MainHeight <= 0 {
		cfg.MainHeight = 900
	}
	if cfg.RailHeight <= 0 {
		cfg.RailHeight = 900
	}
	return &Engine{cfg: cfg, viewH: cfg.MainHeight, railH: cfg.RailHeight}
}

// Attach lays out pages, resets scroll positions and starts a fresh observer.
func (e *Engine) Attach(pages []PageGeometry) {
	e.Detach()

	e.pages = make([]placed, len(pages))
	var top, thumbTop float64
	e.contentW = 0
	for i, g := range pages {
		e.pages[i] = placed{geo: g, top: top, thumbTop: thumbTop}
		top += g.MainH + e.cfg.PageGap
		thumbTop += g.ThumbH + e.cfg.ThumbGap
		if g.MainW > e.contentW {
			e.contentW = g.MainW
		}
	}
	if len(pages) > 0 {
		e.contentH = top - e.cfg.PageGap
		e.railContentH = thumbTop - e.cfg.ThumbGap
		e.containerWidth = pages[0].MainW
	}
	if e.viewW == 0 {
		e.viewW = e.containerWidth
	}

	e.observer = NewObserver(e.cfg.Threshold, e.rootRect, e.onEntries)
	for i := range e.pages {
		p := &e.pages[i]
		e.observer.Observe(p.geo.Ordinal, func() Rect {
			return Rect{Y: p.top, W: p.geo.MainW, H: p.geo.MainH}
		})
	}
	e.observer.Check()
	log.Debug().Int("pages", len(pages)).Float64("content_height", e.contentH).Msg("viewport attached")
}

// Detach disconnects the observer and clears all page state.
func (e *Engine) Detach() {
	if e.observer != nil {
		e.observer.Disconnect()
		e.observer = nil
	}
	e.pages = nil
	e.contentH, e.contentW, e.railContentH, e.containerWidth = 0, 0, 0, 0
	e.scrollTop, e.scrollLeft, e.railTop = 0, 0, 0
	e.highlighted = 0
}

func (e *Engine) Attached() bool { return e.observer != nil }

// Resize sets the main viewport's client origin and size, and the rail height.
// Zero values keep the current setting.
func (e *Engine) Resize(origin Point, width, height, railHeight float64) {
	e.origin = origin
	if width > 0 {
		e.viewW = width
	}
	if height > 0 {
		e.viewH = height
	}
	if railHeight > 0 {
		e.railH = railHeight
	}
	e.setScroll(e.scrollTop, e.scrollLeft)
	e.railTop = clamp(e.railTop, 0, e.railContentH-e.railH)
}

// ScrollMain moves the main view, clamped to its content.
func (e *Engine) ScrollMain(top, left float64) {
	e.setScroll(top, left)
}

// ScrollBy moves the main view relative to its current position.
func (e *Engine) ScrollBy(dy, dx float64) {
	e.setScroll(e.scrollTop+dy, e.scrollLeft+dx)
}

// ClickThumbnail smooth-scrolls the main view so the page's top meets the container top.
func (e *Engine) ClickThumbnail(ordinal int) error {
	p, ok := e.page(ordinal)
	if !ok {
		return fmt.Errorf("no page %d", ordinal)
	}
	from := e.scrollTop
	to := clamp(p.top, 0, e.contentH-e.viewH)
	for i := 1; i <= smoothSteps; i++ {
		e.setScroll(from+(to-from)*float64(i)/smoothSteps, e.scrollLeft)
	}
	return nil
}

// EdgeScroll scrolls the main view one step when pt is within the edge margin.
// It reports whether the position changed.
func (e *Engine) EdgeScroll(pt Point) bool {
	m, step := e.cfg.EdgeMargin, e.cfg.EdgeStep
	if m <= 0 || step <= 0 {
		return false
	}
	var dx, dy float64
	switch {
	case pt.Y < e.origin.Y+m:
		dy = -step
	case pt.Y > e.origin.Y+e.viewH-m:
		dy = step
	}
	switch {
	case pt.X < e.origin.X+m:
		dx = -step
	case pt.X > e.origin.X+e.viewW-m:
		dx = step
	}
	if dx == 0 && dy == 0 {
		return false
	}
	top, left := e.scrollTop, e.scrollLeft
	e.setScroll(top+dy, left+dx)
	return top != e.scrollTop || left != e.scrollLeft
}

// SurfaceBounds is the page's main surface box in client coordinates.
func (e *Engine) SurfaceBounds(ordinal int) (Rect, bool) {
	p, ok := e.page(ordinal)
	if !ok {
		return Rect{}, false
	}
	return Rect{
		X: e.origin.X - e.scrollLeft,
		Y: e.origin.Y + p.top - e.scrollTop,
		W: p.geo.MainW,
		H: p.geo.MainH,
	}, true
}

// HitTest returns the page under a client point.
func (e *Engine) HitTest(pt Point) (int, bool) {
	for _, p := range e.pages {
		if r, _ := e.SurfaceBounds(p.geo.Ordinal); r.Contains(pt) {
			return p.geo.Ordinal, true
		}
	}
	return 0, false
}

func (e *Engine) Highlighted() int { return e.highlighted }

func (e *Engine) ContainerWidth() float64 { return e.containerWidth }

func (e *Engine) State() State {
	return State{
		Highlighted:    e.highlighted,
		ScrollTop:      e.scrollTop,
		ScrollLeft:     e.scrollLeft,
		RailScrollTop:  e.railTop,
		ContentHeight:  e.contentH,
		ContentWidth:   e.contentW,
		RailHeight:     e.railH,
		ViewportWidth:  e.viewW,
		ViewportHeight: e.viewH,
	}
}

func (e *Engine) page(ordinal int) (*placed, bool) {
	if ordinal < 1 || ordinal > len(e.pages) {
		return nil, false
	}
	return &e.pages[ordinal-1], true
}

func (e *Engine) setScroll(top, left float64) {
	e.scrollTop = clamp(top, 0, e.contentH-e.viewH)
	e.scrollLeft = clamp(left, 0, e.contentW-e.viewW)
	if e.observer != nil {
		e.observer.Check()
	}
}

func (e *Engine) rootRect() Rect {
	return Rect{X: e.scrollLeft, Y: e.scrollTop, W: e.viewW, H: e.viewH}
}

func (e *Engine) onEntries(entries []Entry) {
	for _, en := range entries {
		if en.Intersecting {
			e.highlight(en.ID)
		}
	}
}

// highlight marks ordinal and scrolls the rail to it: centered for middle
// pages, just into view for the first and last.
func (e *Engine) highlight(ordinal int) {
	p, ok := e.page(ordinal)
	if !ok {
		return
	}
	e.highlighted = ordinal
	maxTop := e.railContentH - e.railH
	if ordinal != 1 && ordinal != len(e.pages) {
		e.railTop = clamp(p.thumbTop-e.railH/2+p.geo.ThumbH/2, 0, maxTop)
		return
	}
	top := e.railTop
	if bottom := p.thumbTop + p.geo.ThumbH; bottom > top+e.railH {
		top += bottom - (top + e.railH)
	}
	if p.thumbTop < top {
		top = p.thumbTop
	}
	e.railTop = clamp(top, 0, maxTop)
}
