// Package session owns all per-document state: the rendered layout, the
// viewport engine, signature acquisition, the armed signature and the export
// artifact. Every mutation runs under one mutex; renders and flattens run
// outside it. A render is discarded when a newer load or a reset started
// meanwhile; a flatten is discarded only when a different document was
// installed or the session was reset.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/apperr"
	"github.com/local/pdfsigner/internal/docstore"
	"github.com/local/pdfsigner/internal/export"
	"github.com/local/pdfsigner/internal/filetype"
	"github.com/local/pdfsigner/internal/flatten"
	"github.com/local/pdfsigner/internal/metrics"
	"github.com/local/pdfsigner/internal/placement"
	"github.com/local/pdfsigner/internal/render"
	"github.com/local/pdfsigner/internal/signature"
	"github.com/local/pdfsigner/internal/surface"
	"github.com/local/pdfsigner/internal/viewport"
)

// PageCounter reports a document's page count without rendering it.
type PageCounter interface {
	PageCount(data []byte) (int, error)
}

// Deps are the collaborators a Manager drives.
type Deps struct {
	Store     *docstore.Store
	Renderer  *render.Renderer
	Flattener *flatten.Pipeline
	Exporter  *export.Exporter
	Fonts     *signature.FontBank
	Clock     clockwork.Clock
	Probe     PageCounter // optional
}

// Config holds geometry and acquisition settings.
type Config struct {
	Viewport  viewport.Config
	Signature signature.Config
}

// Manager is the single controller for one signing session.
type Manager struct {
	store     *docstore.Store
	renderer  *render.Renderer
	flattener *flatten.Pipeline
	exporter  *export.Exporter
	probe     PageCounter
	detector  *filetype.Detector

	mu     sync.Mutex
	docID  string
	layout *render.Layout
	engine *viewport.Engine
	sig    *signature.Acquirer
	place  *placement.Controller

	loads     generation // competing renders
	doc       generation // installed document
	seq       uint64
	published uint64
}

// generation is a counter paired with a context canceled on every bump.
type generation struct {
	n      uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// bump starts a new generation and cancels the previous one.
func (g *generation) bump() (uint64, context.Context) {
	if g.cancel != nil {
		g.cancel()
	}
	g.n++
	g.ctx, g.cancel = context.WithCancel(context.Background())
	return g.n, g.ctx
}

func New(cfg Config, d Deps) *Manager {
	m := &Manager{
		store:     d.Store,
		renderer:  d.Renderer,
		flattener: d.Flattener,
		exporter:  d.Exporter,
		probe:     d.Probe,
		detector:  filetype.New(),
		engine:    viewport.NewEngine(cfg.Viewport),
		sig:       signature.NewAcquirer(cfg.Signature, d.Fonts, d.Clock),
		place:     placement.New(),
	}
	m.loads.bump()
	m.doc.bump()
	return m
}

// Close cancels in-flight work and stops signature timers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads.cancel()
	m.doc.cancel()
	m.sig.Close()
}

// bind returns a context canceled by either ctx or the generation context.
func bind(ctx, gen context.Context) (context.Context, func()) {
	c, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(gen, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

// Upload renders a new document and persists it once the render succeeds.
func (m *Manager) Upload(ctx context.Context, data []byte) (Summary, error) {
	if !m.detector.IsPDF(data) {
		return Summary{}, apperr.InvalidInput("session.Upload", "Please upload a valid PDF file.")
	}
	return m.load(ctx, data, "upload", true)
}

// Restore re-renders the document held by the store.
func (m *Manager) Restore(ctx context.Context) (Summary, error) {
	data, ok, err := m.store.Load(ctx)
	if err != nil {
		return Summary{}, err
	}
	if !ok {
		return Summary{}, apperr.MissingPrecondition("session.Restore", "No PDF file found.")
	}
	return m.load(ctx, data, "restore", false)
}

func (m *Manager) load(ctx context.Context, data []byte, source string, persist bool) (Summary, error) {
	expected := 0
	if m.probe != nil {
		n, err := m.probe.PageCount(data)
		if err != nil {
			log.Warn().Err(err).Str("source", source).Msg("page count probe failed")
		} else {
			expected = n
		}
	}

	// only competing loads are canceled here; the current document and its
	// flattens stay live until install
	m.mu.Lock()
	gen, gctx := m.loads.bump()
	m.mu.Unlock()

	rctx, done := bind(ctx, gctx)
	defer done()
	start := time.Now()
	layout, err := m.renderer.Render(rctx, data)
	dur := time.Since(start)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.loads.n {
		metrics.IncSuperseded("render")
		log.Info().Str("source", source).Msg("render superseded")
		return Summary{}, apperr.ErrSuperseded
	}
	if err != nil {
		metrics.ObserveLoad(source, "error", 0, dur)
		log.Error().Err(err).Str("source", source).Msg("document render failed")
		return Summary{}, err
	}
	if expected > 0 && expected != layout.Count() {
		log.Warn().Int("probe", expected).Int("rendered", layout.Count()).Msg("page count mismatch between probe and renderer")
	}
	if persist {
		if err := m.store.Replace(ctx, data); err != nil {
			metrics.ObserveLoad(source, "error", 0, dur)
			return Summary{}, err
		}
	}

	m.install(ctx, layout)
	metrics.ObserveLoad(source, "success", layout.Count(), dur)
	log.Info().
		Str("document", m.docID).
		Str("source", source).
		Int("pages", layout.Count()).
		Int("container_width", layout.ContainerWidth).
		Dur("took", dur).
		Msg("document loaded")
	return m.summaryLocked(), nil
}

// install replaces the per-document state and supersedes flattens of the
// previous document; the caller holds mu.
func (m *Manager) install(ctx context.Context, layout *render.Layout) {
	m.doc.bump()
	geo := make([]viewport.PageGeometry, 0, layout.Count())
	for _, p := range layout.Pages {
		geo = append(geo, viewport.PageGeometry{
			Ordinal: p.Ordinal,
			MainW:   float64(p.Main.Width()),
			MainH:   float64(p.Main.Height()),
			ThumbW:  float64(p.Thumb.Width()),
			ThumbH:  float64(p.Thumb.Height()),
		})
	}
	m.engine.Attach(geo)
	m.layout = layout
	m.docID = uuid.NewString()
	m.place.Disarm()
	m.exporter.Revoke(ctx)
	metrics.SetArtifactBytes(0)
}

// Reset clears the store, every surface, the highlight, the armed signature
// and the export artifact. In-flight renders and flattens are superseded.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads.bump()
	m.doc.bump()
	m.engine.Detach()
	m.layout = nil
	m.docID = ""
	m.place.Disarm()
	m.sig.Reset()
	m.exporter.Revoke(ctx)
	metrics.DocumentCleared()
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	log.Info().Msg("session reset")
	return nil
}

// CommitResult describes a page click.
type CommitResult struct {
	Committed bool           `json:"committed"`
	Page      int            `json:"page,omitempty"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Artifact  *export.Handle `json:"artifact,omitempty"`
}

// ClickPage drops the armed signature on a page at a client point, then
// flattens every main surface into a new export artifact. Without an armed
// signature it does nothing.
func (m *Manager) ClickPage(ctx context.Context, ordinal int, pt viewport.Point) (CommitResult, error) {
	const op = "session.ClickPage"
	m.mu.Lock()
	if !m.place.IsArmed() {
		m.mu.Unlock()
		return CommitResult{}, nil
	}
	data, ok, err := m.store.Load(ctx)
	if err != nil {
		m.mu.Unlock()
		return CommitResult{}, err
	}
	if !ok {
		m.mu.Unlock()
		return CommitResult{}, apperr.MissingPrecondition(op, "No PDF file found.")
	}
	ps, ok := m.layout.Page(ordinal)
	if !ok {
		m.mu.Unlock()
		return CommitResult{}, apperr.InvalidInput(op, fmt.Sprintf("There is no page %d.", ordinal))
	}
	bounds, _ := m.engine.SurfaceBounds(ordinal)
	c, err := m.place.Drop(ordinal, pt, bounds, ps.Main)
	if err != nil {
		m.mu.Unlock()
		return CommitResult{}, err
	}
	metrics.IncCommitted(c.Source)
	res := CommitResult{
		Committed: true,
		Page:      c.Ordinal,
		X:         c.Rect.Min.X,
		Y:         c.Rect.Min.Y,
		Width:     c.Rect.Dx(),
		Height:    c.Rect.Dy(),
	}
	snap := make([]*surface.Surface, 0, m.layout.Count())
	for _, s := range m.layout.MainSurfaces() {
		snap = append(snap, s.Clone())
	}
	gen, gctx := m.doc.n, m.doc.ctx
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	fctx, done := bind(ctx, gctx)
	defer done()
	start := time.Now()
	out, err := m.flattener.Flatten(fctx, data, snap)
	metrics.ObserveFlatten(metrics.ResultLabel(err), time.Since(start))

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.doc.n || seq <= m.published {
		metrics.IncSuperseded("flatten")
		log.Info().Uint64("commit", seq).Msg("flatten superseded")
		return res, apperr.ErrSuperseded
	}
	if err != nil {
		log.Error().Err(err).Int("page", ordinal).Msg("flatten failed")
		return res, err
	}
	h, err := m.exporter.Issue(ctx, out)
	if err != nil {
		return res, err
	}
	m.published = seq
	metrics.SetArtifactBytes(h.Size)
	res.Artifact = &h
	return res, nil
}

// Download returns the current export artifact.
func (m *Manager) Download(ctx context.Context) (export.Handle, []byte, error) {
	return m.exporter.Open(ctx)
}
