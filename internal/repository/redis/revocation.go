package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/newsline/accounts-service/internal/core/port"
)

const defaultRevocationPrefix = "accounts:revoked"

// RevocationRepository is the refresh-token revocation ledger backed by
// Redis. Entries are keyed by the token's jti and expire together with
// the token's own lifetime, so the ledger never outgrows the set of
// tokens that could still be replayed.
type RevocationRepository struct {
	client *red.Client
	prefix string
}

// NewRevocationRepository wires a Redis client into a revocation ledger.
func NewRevocationRepository(client *red.Client, keyPrefix string) *RevocationRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationRepository{client: client, prefix: prefix}
}

// MarkRevoked stores the jti with the revocation reason and a TTL
// matching the token's remaining life. Re-revoking an already revoked
// jti overwrites the entry and succeeds, which gives logout its
// idempotency.
func (r *RevocationRepository) MarkRevoked(ctx context.Context, jti string, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(jti)
	if key == "" {
		return errors.New("jti must not be empty")
	}

	if err := r.client.Set(ctx, key, reason, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked jti: %w", err)
	}

	return nil
}

// IsRevoked reports whether the jti is in the ledger and returns the
// stored reason when present.
func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, string, error) {
	key := r.key(jti)
	if key == "" {
		return false, "", errors.New("jti must not be empty")
	}

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("redis get revoked jti: %w", err)
	}

	return true, value, nil
}

func (r *RevocationRepository) key(jti string) string {
	trimmed := strings.TrimSpace(jti)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed)
}

var _ port.RevocationStore = (*RevocationRepository)(nil)
