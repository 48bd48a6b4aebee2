// Package surface holds the raster targets pages are rendered onto.
package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Surface is a mutable RGBA pixel buffer that counts draw operations.
type Surface struct {
	img   *image.RGBA
	draws atomic.Int64
}

// New allocates a transparent w x h surface. Non-positive sizes are clamped to 1.
func New(w, h int) *Surface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Image exposes the backing buffer.
func (s *Surface) Image() *image.RGBA { return s.img }

func (s *Surface) Width() int  { return s.img.Rect.Dx() }
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Fill paints src over the whole surface, scaled to fit. It is not counted as a draw.
func (s *Surface) Fill(src image.Image) {
	draw.BiLinear.Scale(s.img, s.img.Rect, src, src.Bounds(), draw.Src, nil)
}

// DrawImage composites src over dst, scaling src to the rectangle.
// Rectangles partly outside the surface are clipped.
func (s *Surface) DrawImage(src image.Image, dst image.Rectangle) {
	draw.BiLinear.Scale(s.img, dst, src, src.Bounds(), draw.Over, nil)
	s.draws.Add(1)
}

// Clone copies the current pixels into a new surface with a zero draw count.
func (s *Surface) Clone() *Surface {
	img := image.NewRGBA(s.img.Rect)
	copy(img.Pix, s.img.Pix)
	return &Surface{img: img}
}

// DrawCount reports how many DrawImage calls hit this surface.
func (s *Surface) DrawCount() int { return int(s.draws.Load()) }

// EncodePNG serializes the current pixels.
func (s *Surface) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
