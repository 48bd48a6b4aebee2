package flatten

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"testing"

	"github.com/local/pdfsigner/internal/apperr"
	"github.com/local/pdfsigner/internal/surface"
)

type fakeEditor struct {
	pages   int
	loadErr error
	log     []string
}

func (f *fakeEditor) Load(data []byte) (Document, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	d := &fakeDoc{ed: f}
	for i := 0; i < f.pages; i++ {
		d.pages = append(d.pages, &fakePage{ed: f, nr: i + 1})
	}
	return d, nil
}

type fakeDoc struct {
	ed    *fakeEditor
	pages []Page
}

func (d *fakeDoc) Pages() []Page { return d.pages }
func (d *fakeDoc) EmbedPNG(data []byte) (Image, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	d.ed.log = append(d.ed.log, fmt.Sprintf("embed %dx%d", cfg.Width, cfg.Height))
	return &pngImage{data: data, w: cfg.Width, h: cfg.Height}, nil
}
func (d *fakeDoc) Save() ([]byte, error) {
	d.ed.log = append(d.ed.log, "save")
	return []byte("%PDF-out"), nil
}

type fakePage struct {
	ed *fakeEditor
	nr int
}

func (p *fakePage) Width() float64  { return 612 }
func (p *fakePage) Height() float64 { return 792 }
func (p *fakePage) DrawImage(img Image, x, y, w, h float64) error {
	p.ed.log = append(p.ed.log, fmt.Sprintf("draw %d %v %v %v %v", p.nr, x, y, w, h))
	return nil
}

func surfaces(n int) []*surface.Surface {
	out := make([]*surface.Surface, n)
	for i := range out {
		out[i] = surface.New(918+i, 1188)
	}
	return out
}

func TestFlattenInOrderAndSavesOnce(t *testing.T) {
	ed := &fakeEditor{pages: 2}
	out, err := NewPipeline(ed).Flatten(context.Background(), []byte("%PDF"), surfaces(2))
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if string(out) != "%PDF-out" {
		t.Fatalf("out = %q", out)
	}
	want := []string{
		"embed 918x1188", "draw 1 0 0 612 792",
		"embed 919x1188", "draw 2 0 0 612 792",
		"save",
	}
	if fmt.Sprint(ed.log) != fmt.Sprint(want) {
		t.Fatalf("log = %v, want %v", ed.log, want)
	}
}

func TestFlattenCountMismatch(t *testing.T) {
	for _, n := range []int{2, 4} {
		ed := &fakeEditor{pages: 3}
		out, err := NewPipeline(ed).Flatten(context.Background(), nil, surfaces(n))
		if out != nil || apperr.KindOf(err) != apperr.KindMissingPrecondition {
			t.Fatalf("%d surfaces: out %v err %v", n, out, err)
		}
		if len(ed.log) != 0 {
			t.Fatalf("%d surfaces: editor used: %v", n, ed.log)
		}
	}
}

func TestFlattenLoadFailure(t *testing.T) {
	ed := &fakeEditor{loadErr: errors.New("broken xref")}
	_, err := NewPipeline(ed).Flatten(context.Background(), nil, nil)
	if apperr.KindOf(err) != apperr.KindExternalFailure {
		t.Fatalf("err = %v", err)
	}
}

func TestFlattenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ed := &fakeEditor{pages: 1}
	if _, err := NewPipeline(ed).Flatten(ctx, nil, surfaces(1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
