package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{
	"id",
	"name",
	"username",
	"email",
	"gender",
	"mobile_no",
	"address",
	"password_hash",
	"profile_picture",
	"verified",
	"created_at",
	"updated_at",
}

// PostgresUserRepository stores verified users.
type PostgresUserRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresUserRepository creates a new Postgres user repository.
func NewPostgresUserRepository(conn postgres.GenericConn) *PostgresUserRepository {
	return &PostgresUserRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Username,
		&u.Email,
		&u.Gender,
		&u.MobileNo,
		&u.Address,
		&u.PasswordHash,
		&u.ProfilePicture,
		&u.Verified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

// Insert stores a new user and returns it with its ID.
func (r *PostgresUserRepository) Insert(ctx context.Context, u user.User) (user.User, error) {
	sql, args, err := r.sb.Insert("users").
		Columns(userColumns[1:]...).
		Values(
			u.Name,
			u.Username,
			u.Email,
			u.Gender,
			u.MobileNo,
			u.Address,
			u.PasswordHash,
			u.ProfilePicture,
			u.Verified,
			u.CreatedAt,
			u.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&u.ID); err != nil {
		return user.User{}, fmt.Errorf("failed to insert user: %w", postgres.TranslateError(err))
	}

	return u, nil
}

func (r *PostgresUserRepository) getBy(ctx context.Context, where sq.Eq) (user.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to build query: %w", err)
	}

	u, err := scanUser(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		return user.User{}, fmt.Errorf("failed to get user: %w", postgres.TranslateError(err))
	}

	return u, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getBy(ctx, sq.Eq{"id": id})
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getBy(ctx, sq.Eq{"email": email})
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getBy(ctx, sq.Eq{"username": username})
}

func (r *PostgresUserRepository) GetByMobile(ctx context.Context, mobileNo string) (user.User, error) {
	return r.getBy(ctx, sq.Eq{"mobile_no": mobileNo})
}

// List returns all users ordered by ID.
func (r *PostgresUserRepository) List(ctx context.Context) ([]user.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	result := []user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Update overwrites the mutable fields of a user.
func (r *PostgresUserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	sql, args, err := r.sb.Update("users").
		Set("name", u.Name).
		Set("username", u.Username).
		Set("email", u.Email).
		Set("gender", u.Gender).
		Set("mobile_no", u.MobileNo).
		Set("address", u.Address).
		Set("password_hash", u.PasswordHash).
		Set("profile_picture", u.ProfilePicture).
		Set("verified", u.Verified).
		Set("updated_at", u.UpdatedAt).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to update user: %w", postgres.TranslateError(err))
	}
	if tag.RowsAffected() == 0 {
		return user.User{}, dalerrors.ErrNotFound
	}

	return u, nil
}

// Delete removes a user; orders, messages and reset codes cascade.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dalerrors.ErrNotFound
	}

	return nil
}
