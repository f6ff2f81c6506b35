package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/repository"
)

// ActivationCodeRepository implements port.ActivationCodeRepository
// using PostgreSQL. user_id is the primary key of the table, which is
// what enforces the one-live-code-per-user rule.
type ActivationCodeRepository struct {
	db      Querier
	builder squirrel.StatementBuilderType
}

// NewActivationCodeRepository wires a PostgreSQL-backed code repository.
func NewActivationCodeRepository(db Querier) *ActivationCodeRepository {
	return &ActivationCodeRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Replace upserts the user's activation code. Issuing a fresh code for
// a user who already has one overwrites the row, resetting created_at.
func (r *ActivationCodeRepository) Replace(ctx context.Context, code domain.ActivationCode) error {
	sql, args, err := r.builder.Insert("accounts.activation_codes").
		Columns("user_id", "code", "created_at").
		Values(code.UserID, code.Code, code.CreatedAt).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET code = EXCLUDED.code, created_at = EXCLUDED.created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert code sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert activation code: %w", err)
	}

	return nil
}

// GetByUserID retrieves the live code for the supplied user.
func (r *ActivationCodeRepository) GetByUserID(ctx context.Context, userID string) (*domain.ActivationCode, error) {
	stmt, args, err := r.builder.
		Select("user_id", "code", "created_at").
		From("accounts.activation_codes").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select code sql: %w", err)
	}

	var code domain.ActivationCode
	row := r.db.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&code.UserID, &code.Code, &code.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan activation code: %w", err)
	}

	return &code, nil
}

// Delete removes the user's code, enforcing single-use semantics.
func (r *ActivationCodeRepository) Delete(ctx context.Context, userID string) error {
	sql, args, err := r.builder.
		Delete("accounts.activation_codes").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete code sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete activation code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.ActivationCodeRepository = (*ActivationCodeRepository)(nil)
