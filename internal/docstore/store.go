package docstore

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/apperr"
)

// Encode turns raw bytes into slot-safe text.
func Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// Decode reverses Encode.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	return b, nil
}

// Store is the document store: a Slot plus the text codec and optional encryption.
type Store struct {
	slot     Slot
	password string
}

// Option configures a Store.
type Option func(*Store)

// WithPassword enables at-rest encryption.
func WithPassword(p string) Option { return func(s *Store) { s.password = p } }

func New(slot Slot, opts ...Option) *Store {
	s := &Store{slot: slot}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the stored document, if any.
func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	const op = "docstore.Load"
	text, ok, err := s.slot.Load(ctx)
	if err != nil {
		return nil, false, apperr.External(op, "Could not read the stored document.", err)
	}
	if !ok {
		return nil, false, nil
	}
	b, err := Decode(text)
	if err != nil {
		return nil, false, apperr.External(op, "Stored document is corrupt.", err)
	}
	if s.password != "" {
		if b, err = openGCM(b, s.password); err != nil {
			return nil, false, apperr.External(op, "Stored document could not be decrypted.", err)
		}
	}
	log.Debug().Int("bytes", len(b)).Msg("loaded stored document")
	return b, true, nil
}

// Has reports whether the slot currently holds a document.
func (s *Store) Has(ctx context.Context) (bool, error) {
	_, ok, err := s.slot.Load(ctx)
	if err != nil {
		return false, apperr.External("docstore.Has", "Could not read the stored document.", err)
	}
	return ok, nil
}

// Replace overwrites the slot with data.
func (s *Store) Replace(ctx context.Context, data []byte) error {
	const op = "docstore.Replace"
	payload := data
	if s.password != "" {
		sealed, err := sealGCM(data, s.password)
		if err != nil {
			return apperr.External(op, "Could not encrypt the document.", err)
		}
		payload = sealed
	}
	if err := s.slot.Save(ctx, Encode(payload)); err != nil {
		return apperr.External(op, "Could not store the document.", err)
	}
	log.Debug().Int("bytes", len(data)).Bool("encrypted", s.password != "").Msg("stored document")
	return nil
}

// Clear empties the slot.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.slot.Clear(ctx); err != nil {
		return apperr.External("docstore.Clear", "Could not clear the stored document.", err)
	}
	return nil
}
