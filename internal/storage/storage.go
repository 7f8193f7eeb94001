// Package storage persists uploaded originals and redacted outputs.
//
// Objects are addressed by slash-separated keys such as
// "uploads/<id>.docx" or "processed/<id>_redacted.txt". Every backend
// rejects keys that could escape the store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Object is a stored file.
type Object struct {
	Data        []byte    `json:"-"`
	ContentType string    `json:"content_type,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Created     time.Time `json:"created"`
}

// Store is the persistence boundary for originals and outputs.
type Store interface {
	Put(ctx context.Context, key string, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	// Sweep removes objects created before the cutoff and returns how many
	// were removed.
	Sweep(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// ValidateKey checks that key is one or more segments of [A-Za-z0-9._-]
// separated by single slashes, with no "." or ".." segment.
func ValidateKey(key string) error {
	if key == "" || len(key) > 512 {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			ok := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
				c == '.' || c == '_' || c == '-'
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidKey, key)
			}
		}
	}
	return nil
}

// Backend names accepted by New.
const (
	BackendMemory   = "memory"
	BackendFS       = "fs"
	BackendPostgres = "postgres"
	BackendKV       = "kv"
)

// Config selects and configures a backend.
type Config struct {
	Backend     string
	DataDir     string
	DatabaseURL string
	KVURL       string
	KVAPIKey    string
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFS, "":
		return NewFS(cfg.DataDir)
	case BackendPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	case BackendKV:
		return NewKV(cfg.KVURL, cfg.KVAPIKey), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func stamp(obj Object) Object {
	if obj.Created.IsZero() {
		obj.Created = time.Now().UTC()
	}
	return obj
}
