package port

import (
	"context"

	"github.com/newsline/accounts-service/internal/core/domain"
)

// UserRepository exposes persistence behavior for user accounts.
//
// Activate must be conditional: it flips is_active only when the row is
// still inactive and reports repository.ErrConflict otherwise, so
// concurrent activations serialize to exactly one winner. It also
// deletes the user's activation code in the same transaction.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Activate(ctx context.Context, id string) error
}
