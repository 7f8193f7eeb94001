package storage

import (
	"context"
	"sync"
	"time"
)

// Memory keeps objects in process memory. Used in tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) Put(_ context.Context, key string, obj Object) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	obj = stamp(obj)
	obj.Data = append([]byte(nil), obj.Data...)

	m.mu.Lock()
	m.objects[key] = obj
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (Object, error) {
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Sweep(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, obj := range m.objects {
		if obj.Created.Before(before) {
			delete(m.objects, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error { return nil }
