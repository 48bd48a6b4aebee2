package flatten

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/draw"
)

var disableConfigDir sync.Once

// PDFCPUEditor edits with pdfcpu. Each draw becomes an image stamp anchored
// at the page's bottom-left corner.
type PDFCPUEditor struct {
	conf *model.Configuration
}

func NewPDFCPUEditor() *PDFCPUEditor {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFCPUEditor{conf: model.NewDefaultConfiguration()}
}

// PageCount reports the number of pages pdfcpu sees in data.
func (e *PDFCPUEditor) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), e.conf)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

func (e *PDFCPUEditor) Load(data []byte) (Document, error) {
	dims, err := api.PageDims(bytes.NewReader(data), e.conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	d := &pdfcpuDoc{conf: e.conf, src: data}
	d.pages = make([]Page, len(dims))
	for i, dim := range dims {
		d.pages[i] = &pdfcpuPage{doc: d, nr: i + 1, w: dim.Width, h: dim.Height}
	}
	return d, nil
}

type stamp struct {
	img        *pngImage
	x, y, w, h float64
}

type pdfcpuDoc struct {
	conf  *model.Configuration
	src   []byte
	pages []Page
	draws map[int][]stamp
}

func (d *pdfcpuDoc) Pages() []Page { return d.pages }

func (d *pdfcpuDoc) EmbedPNG(data []byte) (Image, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return &pngImage{data: data, w: cfg.Width, h: cfg.Height}, nil
}

// Save applies the stamps in draw order, one pdfcpu pass per layer.
func (d *pdfcpuDoc) Save() ([]byte, error) {
	cur := d.src
	for layer := 0; ; layer++ {
		m := map[int]*model.Watermark{}
		for nr, stamps := range d.draws {
			if layer >= len(stamps) {
				continue
			}
			wm, err := stamps[layer].watermark()
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", nr, err)
			}
			m[nr] = wm
		}
		if len(m) == 0 {
			break
		}
		var out bytes.Buffer
		if err := api.AddWatermarksMap(bytes.NewReader(cur), &out, m, d.conf); err != nil {
			return nil, fmt.Errorf("apply stamps: %w", err)
		}
		cur = out.Bytes()
	}
	if len(d.draws) == 0 {
		// nothing drawn: still emit a rewritten copy
		var out bytes.Buffer
		if err := api.Optimize(bytes.NewReader(cur), &out, d.conf); err != nil {
			return nil, fmt.Errorf("write pdf: %w", err)
		}
		cur = out.Bytes()
	}
	return cur, nil
}

type pdfcpuPage struct {
	doc  *pdfcpuDoc
	nr   int
	w, h float64
}

func (p *pdfcpuPage) Width() float64  { return p.w }
func (p *pdfcpuPage) Height() float64 { return p.h }

func (p *pdfcpuPage) DrawImage(img Image, x, y, w, h float64) error {
	pi, ok := img.(*pngImage)
	if !ok {
		return fmt.Errorf("image was not embedded by this document")
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid draw size %.2fx%.2f", w, h)
	}
	if p.doc.draws == nil {
		p.doc.draws = map[int][]stamp{}
	}
	p.doc.draws[p.nr] = append(p.doc.draws[p.nr], stamp{img: pi, x: x, y: y, w: w, h: h})
	return nil
}

type pngImage struct {
	data []byte
	w, h int
}

func (i *pngImage) Width() int  { return i.w }
func (i *pngImage) Height() int { return i.h }

// watermark builds a stamp of exactly w x h points. pdfcpu keeps the image's
// aspect ratio, so the raster is resampled first when the ratios differ.
func (s stamp) watermark() (*model.Watermark, error) {
	data, iw, ih := s.img.data, s.img.w, s.img.h
	wantH := float64(iw) * s.h / s.w
	if math.Abs(wantH-float64(ih)) > 0.5 {
		nh := int(math.Max(1, math.Round(wantH)))
		resized, err := resample(data, iw, nh)
		if err != nil {
			return nil, err
		}
		data, ih = resized, nh
	}
	desc := fmt.Sprintf("pos:bl, off:%.4f %.4f, sc:%.6f abs, rot:0, op:1", s.x, s.y, s.w/float64(iw))
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(data), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build stamp: %w", err)
	}
	return wm, nil
}

func resample(data []byte, w, h int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
