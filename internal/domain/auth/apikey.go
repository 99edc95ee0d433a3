package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnknownKey is returned when no active API key matches a hash.
var ErrUnknownKey = errors.New("api key not found")

// APIKeyInfo holds the identity and roles behind a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	ActorID string
	Name    string
	Roles   []string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// HashKey returns the hex-encoded HMAC-SHA256 of key under pepper.
func HashKey(key string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
