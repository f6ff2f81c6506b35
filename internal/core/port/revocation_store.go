package port

import (
	"context"
	"time"
)

// RevocationStore is the ledger of refresh-token identifiers that must
// no longer be honored. Entries carry a TTL matching the token's
// remaining natural life, after which the embedded expiry makes the
// ledger entry redundant. Reads must observe prior writes (the refresh
// path consults the ledger before minting anything).
type RevocationStore interface {
	MarkRevoked(ctx context.Context, jti string, reason string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, string, error)
}
