package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts the pgx surface the repositories need so they can
// run against a pool, a transaction, or a pgxmock pool in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// Repositories groups the concrete PostgreSQL repository implementations.
type Repositories struct {
	Users           *UserRepository
	ActivationCodes *ActivationCodeRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(pool),
		ActivationCodes: NewActivationCodeRepository(pool),
	}
}
