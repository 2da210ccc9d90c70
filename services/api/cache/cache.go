// Package cache stores encoded view results keyed by input fingerprint.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Backend stores opaque values with a time-to-live. A miss is (nil, false, nil).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Pinger is implemented by backends that hold a remote connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Fingerprint derives a stable key from a view name and its inputs. Inputs
// are JSON encoded, so map keys are sorted and struct fields ordered.
func Fingerprint(name string, inputs ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for i, in := range inputs {
		if err := enc.Encode(in); err != nil {
			return "", fmt.Errorf("fingerprint %s input %d: %w", name, i, err)
		}
	}
	return name + ":" + hex.EncodeToString(h.Sum(nil)), nil
}
