package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	IsImage     bool
	Description string
}

// imageTypes are the signature image formats we can decode.
var imageTypes = map[string]string{
	"image/png":  "PNG image",
	"image/jpeg": "JPEG image",
	"image/gif":  "GIF image",
	"image/webp": "WebP image",
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// DetectBytes detects the actual file type from content, never from a filename.
func (d *Detector) DetectBytes(data []byte) *FileTypeInfo {
	mtype := mimetype.Detect(data)
	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	d.classify(info)
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Int("bytes", len(data)).Msg("detected file type")
	return info
}

// IsPDF reports whether data sniffs as application/pdf.
func (d *Detector) IsPDF(data []byte) bool { return d.DetectBytes(data).IsPDF }

// classify determines file characteristics
func (d *Detector) classify(info *FileTypeInfo) {
	base := strings.TrimSpace(strings.SplitN(info.MIMEType, ";", 2)[0])
	switch {
	case base == "application/pdf":
		info.IsPDF = true
		info.Description = "PDF document"
	case imageTypes[base] != "":
		info.IsImage = true
		info.Description = imageTypes[base]
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
}
