// Package export issues and revokes download handles for signed documents.
package export

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/apperr"
)

// Filename is the suggested name for every exported document.
const Filename = "signed_document.pdf"

// Handle identifies one stored artifact.
type Handle struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Filename string    `json:"filename"`
	Size     int       `json:"size"`
	Created  time.Time `json:"created"`
}

// Store keeps artifact bytes behind revocable handles.
type Store interface {
	Put(ctx context.Context, data []byte, filename string) (Handle, error)
	Open(ctx context.Context, id string) ([]byte, error)
	Revoke(ctx context.Context, id string) error
}

// Exporter holds the single current artifact.
type Exporter struct {
	store Store

	mu      sync.Mutex
	current *Handle
}

func NewExporter(s Store) *Exporter { return &Exporter{store: s} }

// Issue stores data under a new handle and then revokes the previous one.
// A failed store leaves the previous handle current.
func (e *Exporter) Issue(ctx context.Context, data []byte) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, err := e.store.Put(ctx, data, Filename)
	if err != nil {
		return Handle{}, apperr.External("export.Issue", "Could not store the signed PDF.", err)
	}
	e.revokeLocked(ctx)
	e.current = &h
	log.Info().Str("artifact", h.ID).Int("bytes", h.Size).Msg("export artifact issued")
	return h, nil
}

// Revoke releases the current handle, if any.
func (e *Exporter) Revoke(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revokeLocked(ctx)
}

func (e *Exporter) revokeLocked(ctx context.Context) {
	if e.current == nil {
		return
	}
	if err := e.store.Revoke(ctx, e.current.ID); err != nil {
		log.Warn().Err(err).Str("artifact", e.current.ID).Msg("failed to revoke export artifact")
	}
	e.current = nil
}

func (e *Exporter) Current() (Handle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Handle{}, false
	}
	return *e.current, true
}

// Open returns the current artifact's bytes.
func (e *Exporter) Open(ctx context.Context) (Handle, []byte, error) {
	h, ok := e.Current()
	if !ok {
		return Handle{}, nil, apperr.MissingPrecondition("export.Open", "No signature has been added yet.")
	}
	data, err := e.store.Open(ctx, h.ID)
	if err != nil {
		return Handle{}, nil, apperr.External("export.Open", "Could not read the signed PDF.", err)
	}
	return h, data, nil
}
