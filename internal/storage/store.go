// Package storage is the local key-value collaborator the cart and the
// session persist their snapshots into.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("key not found")
	ErrMalformedState = errors.New("malformed persisted state")
)

// Fixed keys of the two snapshots the storefront keeps.
const (
	KeyCart    = "cart"
	KeySession = "session"
)

// Store defines the local key-value storage operations.
// Each Set replaces the whole value for the key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LoadJSON reads key and decodes it into v. A missing key returns
// ErrNotFound and undecodable content returns ErrMalformedState.
func LoadJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedState, key, err)
	}
	return nil
}

func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
