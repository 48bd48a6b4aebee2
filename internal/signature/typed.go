package signature

import (
	"image"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Suggestion is the typed text rendered in one style.
type Suggestion struct {
	Style string
	Image *image.RGBA
}

// TypedState is a snapshot of the typed input.
type TypedState struct {
	Text        string   `json:"text"`
	Invalid     bool     `json:"invalid"`
	Visible     bool     `json:"suggestions_visible"`
	Styles      []string `json:"styles"`
	Selected    int      `json:"selected"`
	Pending     bool     `json:"pending"`
	RenderCount int      `json:"render_count"`
}

// TypedInput is the typed-signature editor. Suggestion rendering is debounced
// and runs on the clock's goroutine, so all state is guarded by mu.
type TypedInput struct {
	fonts *FontBank
	clock clockwork.Clock
	limit int
	flash time.Duration

	mu          sync.Mutex
	text        string
	invalid     bool
	invalidSeq  int
	flashTimer  clockwork.Timer
	suggestions []Suggestion
	visible     bool
	selected    int
	pending     bool
	renders     int
	updated     chan struct{}

	debounce *Debouncer
}

func NewTypedInput(fonts *FontBank, clock clockwork.Clock, limit int, debounce, flash time.Duration) *TypedInput {
	if limit <= 0 {
		limit = 25
	}
	t := &TypedInput{
		fonts:    fonts,
		clock:    clock,
		limit:    limit,
		flash:    flash,
		selected: -1,
		updated:  make(chan struct{}, 1),
	}
	t.debounce = NewDebouncer(clock, debounce, t.renderSuggestions)
	return t
}

// SetText replaces the text, truncating it to the character limit. Truncation
// raises the invalid signal for the flash duration. It reports whether the
// text was truncated.
func (t *TypedInput) SetText(s string) bool {
	r := []rune(s)
	truncated := len(r) > t.limit
	if truncated {
		s = string(r[:t.limit])
	}

	t.mu.Lock()
	t.text = s
	if truncated {
		t.raiseInvalid()
	}
	t.pending = true
	t.mu.Unlock()

	t.debounce.Trigger()
	return truncated
}

// raiseInvalid must be called with mu held.
func (t *TypedInput) raiseInvalid() {
	t.invalid = true
	t.invalidSeq++
	seq := t.invalidSeq
	if t.flashTimer != nil {
		t.flashTimer.Stop()
	}
	t.flashTimer = t.clock.AfterFunc(t.flash, func() {
		t.mu.Lock()
		if t.invalidSeq == seq {
			t.invalid = false
		}
		t.mu.Unlock()
	})
}

func (t *TypedInput) renderSuggestions() {
	t.mu.Lock()
	text := strings.TrimSpace(t.text)
	t.mu.Unlock()

	var next []Suggestion
	if text != "" {
		for i, name := range t.fonts.Styles() {
			img, err := t.fonts.TextToImage(text, i)
			if err != nil {
				log.Warn().Err(err).Str("style", name).Msg("suggestion render failed")
				continue
			}
			next = append(next, Suggestion{Style: name, Image: img})
		}
	}

	t.mu.Lock()
	// text changed while rendering; the pending run will catch up
	if strings.TrimSpace(t.text) == text {
		t.suggestions = next
		t.visible = len(next) > 0
		t.selected = -1
		t.pending = false
		t.renders++
	}
	t.mu.Unlock()

	select {
	case t.updated <- struct{}{}:
	default:
	}
}

// Updated signals after each suggestion render.
func (t *TypedInput) Updated() <-chan struct{} { return t.updated }

// Select picks suggestion i, deselecting any other.
func (t *TypedInput) Select(i int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.visible || i < 0 || i >= len(t.suggestions) {
		return false
	}
	t.selected = i
	return true
}

// Suggestion returns suggestion i if it is currently shown.
func (t *TypedInput) Suggestion(i int) (Suggestion, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.visible || i < 0 || i >= len(t.suggestions) {
		return Suggestion{}, false
	}
	return t.suggestions[i], true
}

// Clear empties the text and hides suggestions.
func (t *TypedInput) Clear() {
	t.debounce.Stop()
	t.mu.Lock()
	t.text = ""
	t.suggestions = nil
	t.visible = false
	t.selected = -1
	t.pending = false
	t.mu.Unlock()
}

// Stop cancels pending timers.
func (t *TypedInput) Stop() {
	t.debounce.Stop()
	t.mu.Lock()
	if t.flashTimer != nil {
		t.flashTimer.Stop()
	}
	t.mu.Unlock()
}

func (t *TypedInput) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// selection returns the selected style index and trimmed text.
func (t *TypedInput) selection() (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected, strings.TrimSpace(t.text)
}

func (t *TypedInput) State() TypedState {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := TypedState{
		Text:        t.text,
		Invalid:     t.invalid,
		Visible:     t.visible,
		Selected:    t.selected,
		Pending:     t.pending,
		RenderCount: t.renders,
	}
	for _, s := range t.suggestions {
		st.Styles = append(st.Styles, s.Style)
	}
	return st
}
