package session

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/local/pdfsigner/internal/apperr"
	"github.com/local/pdfsigner/internal/export"
	"github.com/local/pdfsigner/internal/placement"
	"github.com/local/pdfsigner/internal/signature"
	"github.com/local/pdfsigner/internal/viewport"
)

// PageInfo is the pixel size of one page's surfaces.
type PageInfo struct {
	Ordinal     int `json:"ordinal"`
	MainWidth   int `json:"main_width"`
	MainHeight  int `json:"main_height"`
	ThumbWidth  int `json:"thumb_width"`
	ThumbHeight int `json:"thumb_height"`
}

// ArmedView is the armed signature as the client draws it.
type ArmedView struct {
	Source  string  `json:"source"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

func armedView(a placement.Armed) *ArmedView {
	return &ArmedView{
		Source:  a.Source,
		Width:   a.Width,
		Height:  a.Height,
		X:       a.Pos.X,
		Y:       a.Pos.Y,
		Visible: a.Visible,
	}
}

// Summary is a snapshot of the whole session.
type Summary struct {
	DocumentID     string         `json:"document_id,omitempty"`
	PageCount      int            `json:"page_count"`
	ContainerWidth int            `json:"container_width"`
	Pages          []PageInfo     `json:"pages"`
	Viewport       viewport.State `json:"viewport"`
	Mode           signature.Mode `json:"mode"`
	Armed          *ArmedView     `json:"armed,omitempty"`
	Artifact       *export.Handle `json:"artifact,omitempty"`
}

func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaryLocked()
}

func (m *Manager) summaryLocked() Summary {
	s := Summary{
		DocumentID: m.docID,
		Pages:      []PageInfo{},
		Viewport:   m.engine.State(),
		Mode:       m.sig.Mode(),
	}
	if m.layout != nil {
		s.PageCount = m.layout.Count()
		s.ContainerWidth = m.layout.ContainerWidth
		for _, p := range m.layout.Pages {
			s.Pages = append(s.Pages, PageInfo{
				Ordinal:     p.Ordinal,
				MainWidth:   p.Main.Width(),
				MainHeight:  p.Main.Height(),
				ThumbWidth:  p.Thumb.Width(),
				ThumbHeight: p.Thumb.Height(),
			})
		}
	}
	if a, ok := m.place.Armed(); ok {
		s.Armed = armedView(a)
	}
	if h, ok := m.exporter.Current(); ok {
		s.Artifact = &h
	}
	return s
}

// PagePNG encodes a page's main or thumbnail surface.
func (m *Manager) PagePNG(ordinal int, thumb bool) ([]byte, error) {
	const op = "session.PagePNG"
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.layout == nil {
		return nil, apperr.MissingPrecondition(op, "No document is loaded.")
	}
	p, ok := m.layout.Page(ordinal)
	if !ok {
		return nil, apperr.InvalidInput(op, fmt.Sprintf("There is no page %d.", ordinal))
	}
	s := p.Main
	if thumb {
		s = p.Thumb
	}
	return s.EncodePNG()
}

// Resize sets the main viewport's client box and the rail height.
func (m *Manager) Resize(origin viewport.Point, width, height, railHeight float64) viewport.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.Resize(origin, width, height, railHeight)
	return m.engine.State()
}

// Scroll sets the main view's scroll position.
func (m *Manager) Scroll(top, left float64) viewport.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.ScrollMain(top, left)
	return m.engine.State()
}

// ClickThumbnail scrolls the main view to a page.
func (m *Manager) ClickThumbnail(ordinal int) (viewport.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.engine.ClickThumbnail(ordinal); err != nil {
		return m.engine.State(), apperr.InvalidInput("session.ClickThumbnail", fmt.Sprintf("There is no page %d.", ordinal))
	}
	return m.engine.State(), nil
}

// PointerResult is the outcome of a pointer move.
type PointerResult struct {
	Armed    *ArmedView     `json:"armed,omitempty"`
	Scrolled bool           `json:"scrolled"`
	Page     int            `json:"page,omitempty"`
	Viewport viewport.State `json:"viewport"`
}

// PointerMove tracks the armed signature and scrolls the main view when the
// pointer sits at its edge. Without an armed signature it only hit-tests.
func (m *Manager) PointerMove(pt viewport.Point) PointerResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res PointerResult
	if a, ok := m.place.Move(pt); ok {
		res.Armed = armedView(a)
		res.Scrolled = m.engine.EdgeScroll(pt)
	}
	res.Page, _ = m.engine.HitTest(pt)
	res.Viewport = m.engine.State()
	return res
}

// SignatureState is a snapshot of signature acquisition.
type SignatureState struct {
	Mode     signature.Mode       `json:"mode"`
	PadEmpty bool                 `json:"pad_empty"`
	HasImage bool                 `json:"has_image"`
	Typed    signature.TypedState `json:"typed"`
	Armed    *ArmedView           `json:"armed,omitempty"`
}

func (m *Manager) Signature() SignatureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signatureLocked()
}

func (m *Manager) signatureLocked() SignatureState {
	st := SignatureState{
		Mode:     m.sig.Mode(),
		PadEmpty: m.sig.Pad().IsEmpty(),
		HasImage: m.sig.HasImage(),
		Typed:    m.sig.Typed().State(),
	}
	if a, ok := m.place.Armed(); ok {
		st.Armed = armedView(a)
	}
	return st
}

func (m *Manager) SelectMode(mode signature.Mode) SignatureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sig.SelectMode(mode)
	return m.signatureLocked()
}

// ToggleTyping flips between draw and type mode.
func (m *Manager) ToggleTyping() SignatureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sig.ToggleTyping()
	return m.signatureLocked()
}

// AddStroke appends a freehand stroke to the pad.
func (m *Manager) AddStroke(pts []signature.Point) SignatureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sig.Pad().AddStroke(pts)
	return m.signatureLocked()
}

// SetText replaces the typed text; suggestions follow after the debounce.
func (m *Manager) SetText(text string) SignatureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sig.Typed().SetText(text)
	return m.signatureLocked()
}

// SelectFont picks a shown suggestion.
func (m *Manager) SelectFont(index int) (SignatureState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sig.Typed().Select(index) {
		return m.signatureLocked(), apperr.InvalidInput("session.SelectFont", fmt.Sprintf("No suggestion %d is shown.", index))
	}
	return m.signatureLocked(), nil
}

// SetImage loads an uploaded signature image and switches to image mode.
func (m *Manager) SetImage(data []byte) (SignatureState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sig.SetImage(data); err != nil {
		return m.signatureLocked(), err
	}
	return m.signatureLocked(), nil
}

// SuggestionPNG encodes a shown typed suggestion.
func (m *Manager) SuggestionPNG(index int) ([]byte, error) {
	s, ok := m.sig.Typed().Suggestion(index)
	if !ok {
		return nil, apperr.InvalidInput("session.SuggestionPNG", fmt.Sprintf("No suggestion %d is shown.", index))
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image); err != nil {
		return nil, fmt.Errorf("encode suggestion: %w", err)
	}
	return buf.Bytes(), nil
}

// ClearSignature clears the active mode's input.
func (m *Manager) ClearSignature() SignatureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sig.Clear()
	return m.signatureLocked()
}

// SaveSignature validates the active input and arms the result, replacing any
// armed signature.
func (m *Manager) SaveSignature() (*ArmedView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode := m.sig.Mode()
	img, err := m.sig.Save()
	if err != nil {
		return nil, err
	}
	return armedView(m.place.Arm(img, string(mode))), nil
}
