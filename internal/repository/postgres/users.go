package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/repository"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id",
	"email",
	"first_name",
	"last_name",
	"password_hash",
	"is_active",
	"is_staff",
	"is_superuser",
	"date_joined",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	db      Querier
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row. A violation of the case-insensitive
// email uniqueness index surfaces as repository.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	sql, args, err := r.builder.Insert("accounts.users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.FirstName,
			user.LastName,
			user.PasswordHash,
			user.IsActive,
			user.IsStaff,
			user.IsSuperuser,
			user.DateJoined,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by the case-normalized login email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": domain.NormalizeEmail(email)})
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

func (r *UserRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("accounts.users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.db.QueryRow(ctx, stmt, args...)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.DateJoined,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

// Activate flips is_active and deletes the user's activation code in a
// single transaction. The update is conditional on the row still being
// inactive so concurrent activations serialize to one winner; losers
// observe repository.ErrConflict. A crash between the two statements
// rolls both back, never leaving an active user with a live code.
func (r *UserRepository) Activate(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	updateSQL, updateArgs, err := r.builder.
		Update("accounts.users").
		Set("is_active", true).
		Where(squirrel.Eq{"id": id, "is_active": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build activate sql: %w", err)
	}

	tag, err := tx.Exec(ctx, updateSQL, updateArgs...)
	if err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}

	deleteSQL, deleteArgs, err := r.builder.
		Delete("accounts.activation_codes").
		Where(squirrel.Eq{"user_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete code sql: %w", err)
	}

	if _, err := tx.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
		return fmt.Errorf("delete activation code: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit activate tx: %w", err)
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
