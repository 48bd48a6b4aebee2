// Package signature acquires a signature image by drawing, typing or upload.
package signature

import (
	"fmt"
	"image"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/apperr"
)

// Mode is the active acquisition method.
type Mode string

const (
	ModeDraw  Mode = "draw"
	ModeType  Mode = "type"
	ModeImage Mode = "image"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDraw, ModeType, ModeImage:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown signature mode %q", s)
}

// Config holds acquisition limits.
type Config struct {
	CharLimit    int
	Debounce     time.Duration
	InvalidFlash time.Duration
	PadWidth     int
	PadHeight    int
}

// Acquirer owns the three inputs; exactly one mode is active.
// Apart from TypedInput it is not safe for concurrent use.
type Acquirer struct {
	mode  Mode
	pad   *Pad
	typed *TypedInput
	image *image.RGBA
}

func NewAcquirer(cfg Config, fonts *FontBank, clock clockwork.Clock) *Acquirer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	if cfg.InvalidFlash <= 0 {
		cfg.InvalidFlash = 300 * time.Millisecond
	}
	return &Acquirer{
		mode:  ModeDraw,
		pad:   NewPad(cfg.PadWidth, cfg.PadHeight),
		typed: NewTypedInput(fonts, clock, cfg.CharLimit, cfg.Debounce, cfg.InvalidFlash),
	}
}

func (a *Acquirer) Mode() Mode         { return a.mode }
func (a *Acquirer) Pad() *Pad          { return a.pad }
func (a *Acquirer) Typed() *TypedInput { return a.typed }
func (a *Acquirer) HasImage() bool     { return a.image != nil }

func (a *Acquirer) SelectMode(m Mode) { a.mode = m }

// ToggleTyping switches between draw and type, clearing the typed text and
// suggestions either way.
func (a *Acquirer) ToggleTyping() Mode {
	a.typed.Clear()
	if a.mode == ModeType {
		a.mode = ModeDraw
	} else {
		a.mode = ModeType
	}
	return a.mode
}

// SetImage stores an uploaded image and switches to image mode.
func (a *Acquirer) SetImage(data []byte) error {
	img, err := DecodeImage(data)
	if err != nil {
		log.Debug().Err(err).Msg("signature image rejected")
		return apperr.InvalidInput("signature.SetImage", "Please upload a PNG, JPEG, GIF or WebP image.")
	}
	a.image = img
	a.mode = ModeImage
	return nil
}

// Clear clears only the active mode's input.
func (a *Acquirer) Clear() {
	switch a.mode {
	case ModeDraw:
		a.pad.Clear()
	case ModeType:
		a.typed.Clear()
	case ModeImage:
		a.image = nil
	}
}

// Reset clears every input and returns to draw mode.
func (a *Acquirer) Reset() {
	a.pad.Clear()
	a.typed.Clear()
	a.image = nil
	a.mode = ModeDraw
}

// Close stops the typed input's timers.
func (a *Acquirer) Close() { a.typed.Stop() }

// Save validates the active input and returns the signature raster.
func (a *Acquirer) Save() (*image.RGBA, error) {
	const op = "signature.Save"
	switch a.mode {
	case ModeType:
		style, text := a.typed.selection()
		if style < 0 {
			return nil, apperr.InvalidInput(op, "Please select a font style.")
		}
		if text == "" {
			return nil, apperr.InvalidInput(op, "Please type your signature.")
		}
		img, err := a.typed.fonts.TextToImage(text, style)
		if err != nil {
			return nil, apperr.External(op, "Could not render the typed signature.", err)
		}
		a.typed.Clear()
		return img, nil
	case ModeImage:
		if a.image == nil {
			return nil, apperr.InvalidInput(op, "Please upload a signature image.")
		}
		return a.image, nil
	default:
		if a.pad.IsEmpty() {
			return nil, apperr.InvalidInput(op, "Please provide a signature first.")
		}
		return a.pad.Image(), nil
	}
}
