package signature

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Style is one handwriting face offered for typed signatures.
type Style struct {
	Name string
	font *opentype.Font
}

// FontBank holds the typed-signature styles and renders text with them.
type FontBank struct {
	styles []Style
	size   float64
}

var builtin = []struct {
	name string
	ttf  []byte
}{
	{"Gluten", goitalic.TTF},
	{"Kalam", gobolditalic.TTF},
	{"Courgette", gomediumitalic.TTF},
}

// NewFontBank loads every .ttf/.otf in dir, sorted by name. With an empty dir,
// or one without fonts, the three built-in styles are used.
func NewFontBank(dir string, size float64) (*FontBank, error) {
	if size <= 0 {
		size = 48
	}
	fb := &FontBank{size: size}
	if dir != "" {
		if err := fb.loadDir(dir); err != nil {
			return nil, err
		}
	}
	if len(fb.styles) == 0 {
		for _, b := range builtin {
			f, err := opentype.Parse(b.ttf)
			if err != nil {
				return nil, fmt.Errorf("parse builtin font %s: %w", b.name, err)
			}
			fb.styles = append(fb.styles, Style{Name: b.name, font: f})
		}
	}
	return fb, nil
}

func (fb *FontBank) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read font dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read font %s: %w", e.Name(), err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return fmt.Errorf("parse font %s: %w", e.Name(), err)
		}
		fb.styles = append(fb.styles, Style{Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), font: f})
	}
	return nil
}

// Styles returns the style names in display order.
func (fb *FontBank) Styles() []string {
	out := make([]string, len(fb.styles))
	for i, s := range fb.styles {
		out[i] = s.Name
	}
	return out
}

func (fb *FontBank) Len() int { return len(fb.styles) }

// TextToImage draws text in black at baseline (10, 50) on a transparent
// (ceil(width)+20) x 70 canvas.
func (fb *FontBank) TextToImage(text string, style int) (*image.RGBA, error) {
	if style < 0 || style >= len(fb.styles) {
		return nil, fmt.Errorf("unknown font style %d", style)
	}
	face, err := opentype.NewFace(fb.styles[style].font, &opentype.FaceOptions{
		Size:    fb.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	width := font.MeasureString(face, text).Ceil()
	img := image.NewRGBA(image.Rect(0, 0, width+20, 70))
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)
	return img, nil
}
