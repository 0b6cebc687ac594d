package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Pebble is a file-backed Store on top of a local pebble database.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a pebble database at path.
func OpenPebble(path string) (*Pebble, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Get(_ context.Context, key string) (string, error) {
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	defer closer.Close()
	// v is only valid until closer.Close
	return string(v), nil
}

func (p *Pebble) Set(_ context.Context, key, value string) error {
	return p.db.Set([]byte(key), []byte(value), pebble.Sync)
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
