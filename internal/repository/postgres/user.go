package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/classfolio/classfolio-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, username, email, password_hash, first_name, last_name, role,
			  is_active, last_login_at, refresh_tokens, created_at, updated_at`

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	var role string
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &role, &user.IsActive,
		&user.LastLoginAt, &user.RefreshTokens, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Role = model.Role(role)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByUsernameOrEmail returns the first user colliding with either value.
// Username matches are case-sensitive, email matches are not.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = lower($2)`

	user, err := scanUser(r.db.QueryRow(ctx, query, username, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by username or email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	// A nil token slice binds as SQL NULL; coalesce keeps the column at
	// its empty-list default for users created before any session exists.
	query := `INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, is_active, refresh_tokens, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, coalesce($9, '{}'), $10, $11)
			  RETURNING ` + userColumns

	savedUser, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, string(user.Role), user.IsActive,
		user.RefreshTokens, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return model.User{}, model.ErrEmailTaken
			}
			return model.User{}, model.ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return savedUser, nil
}

func (r *UserRepository) List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM users WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users WHERE `+where+`
			  ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, total, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email string) (model.User, error) {
	query := `UPDATE users SET first_name = $2, last_name = $3, email = lower($4), updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, firstName, lastName, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, model.ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// RecordLogin stores the successful-login timestamp and appends the fresh
// refresh token in one statement, so the two changes commit together.
func (r *UserRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, refreshToken string) error {
	query := `UPDATE users SET last_login_at = $2, refresh_tokens = array_append(refresh_tokens, $3), updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, at, refreshToken); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

func (r *UserRepository) AppendRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE users SET refresh_tokens = array_append(refresh_tokens, $2), updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, token); err != nil {
		return fmt.Errorf("failed to append refresh token: %w", err)
	}
	return nil
}

// RemoveRefreshToken drops every occurrence of token from the list.
// Removing an absent token is a no-op.
func (r *UserRepository) RemoveRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE users SET refresh_tokens = array_remove(refresh_tokens, $2), updated_at = NOW()
			  WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, token); err != nil {
		return fmt.Errorf("failed to remove refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken swaps oldToken for newToken in a single conditional
// update. The WHERE clause keys on the old token's membership, so two
// concurrent rotations of the same token cannot both succeed.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	query := `UPDATE users SET refresh_tokens = array_append(array_remove(refresh_tokens, $2), $3), updated_at = NOW()
			  WHERE id = $1 AND $2 = ANY(refresh_tokens)`

	tag, err := r.db.Exec(ctx, query, id, oldToken, newToken)
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdatePassword sets the new hash and empties the refresh-token list in
// one statement, forcing re-login on every device.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, refresh_tokens = '{}', updated_at = NOW()
			  WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
