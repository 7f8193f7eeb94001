package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const metaSuffix = ".meta.json"

// FS stores each object as a file under a root directory with a JSON
// sidecar holding its metadata.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("fs storage: data directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("fs storage: create %s: %w", root, err)
	}
	return &FS{root: root}, nil
}

func (s *FS) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if strings.HasSuffix(key, metaSuffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *FS) Put(_ context.Context, key string, obj Object) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	obj = stamp(obj)
	meta, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := writeAtomic(p, obj.Data); err != nil {
		return err
	}
	return writeAtomic(p+metaSuffix, meta)
}

func (s *FS) Get(_ context.Context, key string) (Object, error) {
	p, err := s.path(key)
	if err != nil {
		return Object{}, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", key, err)
	}

	var obj Object
	if meta, err := os.ReadFile(p + metaSuffix); err == nil {
		if err := json.Unmarshal(meta, &obj); err != nil {
			return Object{}, fmt.Errorf("decode meta %s: %w", key, err)
		}
	} else if info, statErr := os.Stat(p); statErr == nil {
		obj.Created = info.ModTime().UTC()
	}
	obj.Data = data
	return obj, nil
}

func (s *FS) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	for _, f := range []string{p, p + metaSuffix} {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *FS) Sweep(ctx context.Context, before time.Time) (int, error) {
	n := 0
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		obj, err := s.Get(ctx, filepath.ToSlash(rel))
		if err != nil {
			return nil
		}
		if obj.Created.Before(before) {
			if err := s.Delete(ctx, filepath.ToSlash(rel)); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *FS) Close() error { return nil }

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
