package store

import (
	"context"
	"sync"
)

type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: map[string][]byte{}}
}

func (m *Memory) Load(_ context.Context, slot string) ([]byte, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[slot]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *Memory) Save(_ context.Context, slot string, blob []byte) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[slot] = append([]byte(nil), blob...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.blobs, slot)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
