package signature

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/local/pdfsigner/internal/filetype"
)

// DecodeImage sniffs and decodes an uploaded signature image into RGBA.
func DecodeImage(data []byte) (*image.RGBA, error) {
	info := filetype.New().DetectBytes(data)
	if !info.IsImage {
		return nil, fmt.Errorf("unsupported signature image type %s", info.MIMEType)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", info.MIMEType, err)
	}
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out, nil
}
