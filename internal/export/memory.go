package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps artifacts in process memory under blob: URLs.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{blobs: map[string][]byte{}} }

func (m *MemoryStore) Put(ctx context.Context, data []byte, filename string) (Handle, error) {
	id := uuid.NewString()
	m.mu.Lock()
	m.blobs[id] = append([]byte(nil), data...)
	m.mu.Unlock()
	return Handle{
		ID:       id,
		URL:      "blob:pdfsigner/" + id,
		Filename: filename,
		Size:     len(data),
		Created:  time.Now().UTC(),
	}, nil
}

func (m *MemoryStore) Open(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", id)
	}
	return b, nil
}

func (m *MemoryStore) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.blobs, id)
	m.mu.Unlock()
	return nil
}

// Len is the number of live artifacts.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
