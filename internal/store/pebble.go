package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Pebble is a disk-backed KV over a pebble database.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a pebble database in dir.
func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble store at %s: %w", dir, err)
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Get(key string) (string, error) {
	value, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("reading key %q: %w", key, err)
	}
	out := string(value)
	if err := closer.Close(); err != nil {
		return "", fmt.Errorf("closing value for key %q: %w", key, err)
	}
	return out, nil
}

func (p *Pebble) Set(key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

func (p *Pebble) Delete(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
