package render

import (
	"context"
	"fmt"
	"image"
	"math"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/local/pdfsigner/internal/surface"
)

// FitzRasterizer renders with MuPDF through go-fitz.
type FitzRasterizer struct{}

func NewFitzRasterizer() *FitzRasterizer { return &FitzRasterizer{} }

func (FitzRasterizer) Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzDoc{doc: doc}, nil
}

type fitzDoc struct {
	doc *fitz.Document
}

func (d *fitzDoc) PageCount() int { return d.doc.NumPage() }

func (d *fitzDoc) Page(ordinal int) (Page, error) {
	// go-fitz uses 0-based indexing
	idx := ordinal - 1
	if idx < 0 || idx >= d.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", ordinal, d.doc.NumPage())
	}
	bound, err := d.doc.Bound(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d bounds: %w", ordinal, err)
	}
	return &fitzPage{doc: d.doc, idx: idx, bound: bound}, nil
}

func (d *fitzDoc) Close() error { return d.doc.Close() }

type fitzPage struct {
	doc   *fitz.Document
	idx   int
	bound image.Rectangle
}

// Viewport scales the page bound, which go-fitz reports in points.
func (p *fitzPage) Viewport(scale float64) Viewport {
	return Viewport{
		Scale:  scale,
		Width:  int(math.Floor(float64(p.bound.Dx()) * scale)),
		Height: int(math.Floor(float64(p.bound.Dy()) * scale)),
	}
}

func (p *fitzPage) Render(ctx context.Context, dst *surface.Surface, vp Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := p.doc.ImageDPI(p.idx, 72*vp.Scale)
	if err != nil {
		return fmt.Errorf("failed to render page %d: %w", p.idx+1, err)
	}
	dst.Fill(img)
	return nil
}
