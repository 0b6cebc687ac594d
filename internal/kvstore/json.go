package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// LoadJSON reads key and decodes it into v. A missing key returns ErrNotFound;
// a payload that does not decode returns a wrapped decode error.
func LoadJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// SaveJSON encodes v and writes it under key as a single value.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}
