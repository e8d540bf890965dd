package providers

import (
	"context"
	"errors"
)

// ErrPreferenceNotFound is returned when no value is stored for a key.
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceStore persists per-user UI preferences as opaque strings.
type PreferenceStore interface {
	Get(ctx context.Context, userID, key string) (string, error)
	Set(ctx context.Context, userID, key, value string) error
	Delete(ctx context.Context, userID, key string) error
}
