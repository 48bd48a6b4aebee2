// Package placement tracks the armed signature and commits it onto a page surface.
package placement

import (
	"errors"
	"image"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/surface"
	"github.com/local/pdfsigner/internal/viewport"
)

// ErrNotArmed is returned by Drop when nothing is armed.
var ErrNotArmed = errors.New("no signature armed")

// offscreen is where a freshly armed signature waits for the first pointer move.
var offscreen = viewport.Point{X: -1000, Y: -1000}

// Armed is a signature following the pointer. Values are replaced, never mutated.
type Armed struct {
	Image   image.Image
	Source  string
	Width   float64
	Height  float64
	Pos     viewport.Point // top-left, client coordinates
	Visible bool
}

// Commit describes a finished drop.
type Commit struct {
	Ordinal int
	Rect    image.Rectangle
	Source  string
}

// Controller holds at most one armed signature.
type Controller struct {
	armed *Armed
}

func New() *Controller { return &Controller{} }

// Arm replaces any armed signature with img, hidden and off-screen.
func (c *Controller) Arm(img image.Image, source string) Armed {
	b := img.Bounds()
	a := &Armed{
		Image:  img,
		Source: source,
		Width:  float64(b.Dx()),
		Height: float64(b.Dy()),
		Pos:    offscreen,
	}
	if c.armed != nil {
		log.Debug().Str("previous", c.armed.Source).Str("source", source).Msg("replacing armed signature")
	}
	c.armed = a
	return *a
}

// Armed returns the current armed signature.
func (c *Controller) Armed() (Armed, bool) {
	if c.armed == nil {
		return Armed{}, false
	}
	return *c.armed, true
}

func (c *Controller) IsArmed() bool { return c.armed != nil }

// Move centers the signature on pt and makes it visible.
func (c *Controller) Move(pt viewport.Point) (Armed, bool) {
	if c.armed == nil {
		return Armed{}, false
	}
	next := *c.armed
	next.Pos = viewport.Point{X: pt.X - next.Width/2, Y: pt.Y - next.Height/2}
	next.Visible = true
	c.armed = &next
	return next, true
}

// Drop draws the armed signature onto dst, centered on pt relative to the
// surface's client bounds, then disarms.
func (c *Controller) Drop(ordinal int, pt viewport.Point, bounds viewport.Rect, dst *surface.Surface) (Commit, error) {
	if c.armed == nil {
		return Commit{}, ErrNotArmed
	}
	a := c.armed
	x := pt.X - bounds.X - a.Width/2
	y := pt.Y - bounds.Y - a.Height/2
	r := image.Rect(
		int(math.Round(x)),
		int(math.Round(y)),
		int(math.Round(x+a.Width)),
		int(math.Round(y+a.Height)),
	)
	dst.DrawImage(a.Image, r)
	c.armed = nil
	log.Info().Int("page", ordinal).Int("x", r.Min.X).Int("y", r.Min.Y).Int("w", r.Dx()).Int("h", r.Dy()).Str("source", a.Source).Msg("signature committed")
	return Commit{Ordinal: ordinal, Rect: r, Source: a.Source}, nil
}

// Disarm discards any armed signature.
func (c *Controller) Disarm() { c.armed = nil }
