// Package render turns a PDF into per-page main and thumbnail surfaces.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/apperr"
	"github.com/local/pdfsigner/internal/surface"
)

// Viewport is a page's pixel size at a given scale.
type Viewport struct {
	Scale  float64
	Width  int
	Height int
}

// Rasterizer opens PDF bytes.
type Rasterizer interface {
	Open(data []byte) (Document, error)
}

// Document is an opened PDF. Ordinals are 1-based.
type Document interface {
	PageCount() int
	Page(ordinal int) (Page, error)
	Close() error
}

// Page renders one PDF page.
type Page interface {
	Viewport(scale float64) Viewport
	Render(ctx context.Context, dst *surface.Surface, vp Viewport) error
}

// PageSurfaces is the rendered output for one ordinal.
type PageSurfaces struct {
	Ordinal int
	Main    *surface.Surface
	Thumb   *surface.Surface
}

// Layout is the complete render of one document.
type Layout struct {
	Pages          []*PageSurfaces
	ContainerWidth int
}

// Page returns the surfaces for ordinal.
func (l *Layout) Page(ordinal int) (*PageSurfaces, bool) {
	if l == nil || ordinal < 1 || ordinal > len(l.Pages) {
		return nil, false
	}
	return l.Pages[ordinal-1], true
}

// Count is the number of rendered pages.
func (l *Layout) Count() int {
	if l == nil {
		return 0
	}
	return len(l.Pages)
}

// MainSurfaces returns the main surfaces in ordinal order.
func (l *Layout) MainSurfaces() []*surface.Surface {
	out := make([]*surface.Surface, 0, l.Count())
	for _, p := range l.Pages {
		out = append(out, p.Main)
	}
	return out
}

// Renderer renders documents at fixed main and thumbnail scales.
type Renderer struct {
	raster     Rasterizer
	mainScale  float64
	thumbScale float64
}

func NewRenderer(r Rasterizer, mainScale, thumbScale float64) *Renderer {
	if mainScale <= 0 {
		mainScale = 1.5
	}
	if thumbScale <= 0 {
		thumbScale = 0.3
	}
	return &Renderer{raster: r, mainScale: mainScale, thumbScale: thumbScale}
}

// Render renders every page in ordinal order, thumbnail first. It returns
// either a complete layout or an error and no layout.
func (r *Renderer) Render(ctx context.Context, data []byte) (*Layout, error) {
	const op = "render.Render"
	doc, err := r.raster.Open(data)
	if err != nil {
		return nil, apperr.External(op, "Could not read the PDF file.", err)
	}
	defer doc.Close()

	n := doc.PageCount()
	if n < 1 {
		return nil, apperr.InvalidInput(op, "The PDF file has no pages.")
	}

	layout := &Layout{Pages: make([]*PageSurfaces, 0, n)}
	for ord := 1; ord <= n; ord++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := doc.Page(ord)
		if err != nil {
			return nil, apperr.External(op, fmt.Sprintf("Could not load page %d.", ord), err)
		}
		thumb, err := r.draw(ctx, page, r.thumbScale)
		if err != nil {
			return nil, renderErr(op, ord, err)
		}
		main, err := r.draw(ctx, page, r.mainScale)
		if err != nil {
			return nil, renderErr(op, ord, err)
		}
		if ord == 1 {
			layout.ContainerWidth = main.Width()
		}
		layout.Pages = append(layout.Pages, &PageSurfaces{Ordinal: ord, Main: main, Thumb: thumb})
		log.Debug().Int("page", ord).Int("width", main.Width()).Int("height", main.Height()).Msg("page rendered")
	}
	log.Info().Int("pages", n).Int("container_width", layout.ContainerWidth).Msg("document rendered")
	return layout, nil
}

func (r *Renderer) draw(ctx context.Context, page Page, scale float64) (*surface.Surface, error) {
	vp := page.Viewport(scale)
	s := surface.New(vp.Width, vp.Height)
	if err := page.Render(ctx, s, vp); err != nil {
		return nil, err
	}
	return s, nil
}

func renderErr(op string, ord int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.External(op, fmt.Sprintf("Could not render page %d.", ord), err)
}
