package signature

import (
	"image"
	"math"

	"golang.org/x/image/vector"
)

const (
	penWidth  = 2.5
	capPoints = 16
)

// Point is a pad coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pad collects freehand strokes.
type Pad struct {
	w, h    int
	strokes [][]Point
}

func NewPad(w, h int) *Pad {
	if w <= 0 {
		w = 500
	}
	if h <= 0 {
		h = 200
	}
	return &Pad{w: w, h: h}
}

func (p *Pad) Size() (int, int) { return p.w, p.h }

// AddStroke appends one pen-down to pen-up path. Empty strokes are ignored.
func (p *Pad) AddStroke(pts []Point) {
	if len(pts) == 0 {
		return
	}
	p.strokes = append(p.strokes, append([]Point(nil), pts...))
}

func (p *Pad) IsEmpty() bool { return len(p.strokes) == 0 }

func (p *Pad) Clear() { p.strokes = nil }

// Image rasterizes the strokes in black on a transparent pad-sized canvas.
func (p *Pad) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.w, p.h))
	if p.IsEmpty() {
		return img
	}
	z := vector.NewRasterizer(p.w, p.h)
	r := penWidth / 2
	for _, s := range p.strokes {
		for i, pt := range s {
			dot(z, pt, r)
			if i > 0 {
				segment(z, s[i-1], pt, r)
			}
		}
	}
	z.Draw(img, img.Bounds(), image.Black, image.Point{})
	return img
}

// dot adds a round cap.
func dot(z *vector.Rasterizer, c Point, r float64) {
	for i := 0; i <= capPoints; i++ {
		a := 2 * math.Pi * float64(i) / capPoints
		x, y := float32(c.X+r*math.Cos(a)), float32(c.Y+r*math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

// segment adds the quad covering a line of width 2r from a to b.
func segment(z *vector.Rasterizer, a, b Point, r float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*r, dx/l*r
	z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	z.LineTo(float32(b.X+nx), float32(b.Y+ny))
	z.LineTo(float32(b.X-nx), float32(b.Y-ny))
	z.LineTo(float32(a.X-nx), float32(a.Y-ny))
	z.ClosePath()
}
