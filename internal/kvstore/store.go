// Package kvstore is the Local Store: a string-keyed blob store that survives
// restarts. Components receive a Store instead of reaching for a global.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the storage port shared by the chat thread, membership and user records.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Well-known keys.
const (
	KeyChatThread = "studentAdminChat"
	KeyMembership = "proMembership"
	KeyUsers      = "users"
)
