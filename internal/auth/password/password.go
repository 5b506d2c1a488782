// Package password hashes and verifies administrator credentials with scrypt.
//
// Encoded hashes have the form hex(salt):hex(key) with a 32-byte salt and a
// 64-byte key derived with N=16384, r=8, p=1.
package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"

	dErrors "smartparking/pkg/domain-errors"
)

const (
	costN   = 1 << 14
	blockR  = 8
	parP    = 1
	keyLen  = 64
	saltLen = 32

	// MinLength is the shortest plaintext Hash accepts.
	MinLength = 8

	// DefaultMaxConcurrent bounds in-flight derivations. Each one allocates
	// 128*r*N bytes (16MB), so four keep the KDF under 64MB.
	DefaultMaxConcurrent = 4
)

// Hasher derives and verifies scrypt hashes with a bounded number of
// concurrent derivations.
type Hasher struct {
	sem *semaphore.Weighted
}

type Option func(*Hasher)

// WithMaxConcurrent changes the derivation concurrency cap.
func WithMaxConcurrent(n int64) Option {
	return func(h *Hasher) {
		if n > 0 {
			h.sem = semaphore.NewWeighted(n)
		}
	}
}

func New(opts ...Option) *Hasher {
	h := &Hasher{sem: semaphore.NewWeighted(DefaultMaxConcurrent)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns the encoded hash of plaintext using a fresh random salt.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) < MinLength {
		return "", dErrors.Validation("password", fmt.Sprintf("must be at least %d characters", MinLength))
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate salt")
	}
	key, err := h.derive(ctx, plaintext, salt)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash password")
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify reports whether plaintext matches encoded. Any malformed input or
// KDF failure is a mismatch.
func (h *Hasher) Verify(ctx context.Context, plaintext, encoded string) bool {
	salt, want, ok := Decode(encoded)
	if !ok {
		return false
	}
	got, err := h.derive(ctx, plaintext, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

// Decode splits an encoded hash into salt and key, checking their lengths.
func Decode(encoded string) (salt, key []byte, ok bool) {
	saltHex, keyHex, found := strings.Cut(encoded, ":")
	if !found {
		return nil, nil, false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != saltLen {
		return nil, nil, false
	}
	key, err = hex.DecodeString(keyHex)
	if err != nil || len(key) != keyLen {
		return nil, nil, false
	}
	return salt, key, true
}

// WellFormed reports whether encoded parses as a hash record.
func WellFormed(encoded string) bool {
	_, _, ok := Decode(encoded)
	return ok
}

func (h *Hasher) derive(ctx context.Context, plaintext string, salt []byte) ([]byte, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.sem.Release(1)
	return scrypt.Key([]byte(plaintext), salt, costN, blockR, parP, keyLen)
}
