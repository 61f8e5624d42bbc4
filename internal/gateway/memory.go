package gateway

import (
	"context"
	"sync"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/errors"
)

// Memory keeps encoded collections in process memory.
// Values are stored encoded so callers never share slices with the gateway.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, name string) ([]bookmark.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, errors.NewPersistence("read collection", err)
	}
	m.mu.RLock()
	payload, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	records, err := decode(payload)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (m *Memory) Set(ctx context.Context, name string, records []bookmark.Record) error {
	if err := ctx.Err(); err != nil {
		return errors.NewPersistence("write collection", err)
	}
	payload, err := encode(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[name] = payload
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
