package port

import (
	"context"

	"github.com/newsline/accounts-service/internal/core/domain"
)

// ActivationCodeRepository manages the single live code per user.
// Replace upserts: a second code for the same user overwrites the first.
type ActivationCodeRepository interface {
	Replace(ctx context.Context, code domain.ActivationCode) error
	GetByUserID(ctx context.Context, userID string) (*domain.ActivationCode, error)
	Delete(ctx context.Context, userID string) error
}
