// Package flatten bakes rendered page surfaces into a new PDF.
package flatten

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/apperr"
	"github.com/local/pdfsigner/internal/surface"
)

// Editor loads PDFs for editing.
type Editor interface {
	Load(data []byte) (Document, error)
}

// Document is an editable PDF.
type Document interface {
	Pages() []Page
	EmbedPNG(data []byte) (Image, error)
	Save() ([]byte, error)
}

// Page is one editable page; sizes are in points.
type Page interface {
	Width() float64
	Height() float64
	DrawImage(img Image, x, y, w, h float64) error
}

// Image is an embedded raster.
type Image interface {
	Width() int
	Height() int
}

// Pipeline draws each surface over the whole of its page.
type Pipeline struct {
	editor Editor
}

func NewPipeline(e Editor) *Pipeline { return &Pipeline{editor: e} }

// Flatten loads data, stretches surfaces[i] over page i+1 in order, and
// serializes once. The surface count must equal the page count.
func (p *Pipeline) Flatten(ctx context.Context, data []byte, surfaces []*surface.Surface) ([]byte, error) {
	const op = "flatten.Flatten"
	doc, err := p.editor.Load(data)
	if err != nil {
		return nil, apperr.External(op, "Could not load the PDF for export.", err)
	}
	pages := doc.Pages()
	if len(pages) != len(surfaces) {
		return nil, apperr.MissingPrecondition(op,
			fmt.Sprintf("Document has %d pages but %d were rendered.", len(pages), len(surfaces)))
	}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		png, err := surfaces[i].EncodePNG()
		if err != nil {
			return nil, apperr.External(op, fmt.Sprintf("Could not encode page %d.", i+1), err)
		}
		img, err := doc.EmbedPNG(png)
		if err != nil {
			return nil, apperr.External(op, fmt.Sprintf("Could not embed page %d.", i+1), err)
		}
		if err := page.DrawImage(img, 0, 0, page.Width(), page.Height()); err != nil {
			return nil, apperr.External(op, fmt.Sprintf("Could not draw page %d.", i+1), err)
		}
	}

	out, err := doc.Save()
	if err != nil {
		return nil, apperr.External(op, "Could not save the signed PDF.", err)
	}
	log.Info().Int("pages", len(pages)).Int("bytes", len(out)).Msg("document flattened")
	return out, nil
}
