// Package store persists opaque save blobs by slot name.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNotFound    = errors.New("save not found")
	ErrInvalidSlot = errors.New("slot must be 1-64 letters, digits, '-' or '_'")
)

var slotRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type Store interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, blob []byte) error
	Delete(ctx context.Context, slot string) error
	Close() error
}

func ValidateSlot(slot string) error {
	if !slotRE.MatchString(slot) {
		return ErrInvalidSlot
	}
	return nil
}

const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

type Options struct {
	Kind        string
	Path        string
	DatabaseURL string
}

// Open builds the store named by opts.Kind.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case KindMemory:
		return NewMemory(), nil
	case "", KindFile:
		return NewFile(opts.Path)
	case KindSQLite:
		path := opts.Path
		if path == "" {
			path = "desk.db"
		}
		return NewSQLite(path)
	case KindPostgres:
		if strings.TrimSpace(opts.DatabaseURL) == "" {
			return nil, errors.New("postgres store requires DATABASE_URL")
		}
		return OpenPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store kind %q", opts.Kind)
	}
}
