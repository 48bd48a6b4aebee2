package filetype

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/local/pdfsigner/internal/pdftest"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDetectBytes(t *testing.T) {
	d := New()
	cases := []struct {
		name    string
		data    []byte
		isPDF   bool
		isImage bool
	}{
		{"pdf", pdftest.Build(), true, false},
		{"png", pngBytes(t), false, true},
		{"gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), false, true},
		{"text", []byte("hello, world"), false, false},
		{"empty", nil, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			info := d.DetectBytes(c.data)
			if info.IsPDF != c.isPDF || info.IsImage != c.isImage {
				t.Fatalf("%s: got %+v", c.name, info)
			}
		})
	}
	if !d.IsPDF(pdftest.Build()) {
		t.Fatal("IsPDF = false for a PDF")
	}
}
