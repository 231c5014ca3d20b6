package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/tempuser"
)

// PostgresTempUserRepository stores pending registrations.
type PostgresTempUserRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresTempUserRepository creates a new Postgres temporary user repository.
func NewPostgresTempUserRepository(conn postgres.GenericConn) *PostgresTempUserRepository {
	return &PostgresTempUserRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Upsert inserts a registration or replaces the pending one for the same email.
func (r *PostgresTempUserRepository) Upsert(
	ctx context.Context,
	t tempuser.TemporaryUser,
) (tempuser.TemporaryUser, error) {
	sql, args, err := r.sb.Insert("temporary_users").
		Columns(
			"name",
			"username",
			"email",
			"gender",
			"mobile_no",
			"address",
			"password_hash",
			"profile_picture",
			"otp",
			"otp_expiry",
			"created_at",
		).
		Values(
			t.Name,
			t.Username,
			t.Email,
			t.Gender,
			t.MobileNo,
			t.Address,
			t.PasswordHash,
			t.ProfilePicture,
			t.OTP,
			t.OTPExpiry,
			t.CreatedAt,
		).
		Suffix(`ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			username = EXCLUDED.username,
			gender = EXCLUDED.gender,
			mobile_no = EXCLUDED.mobile_no,
			address = EXCLUDED.address,
			password_hash = EXCLUDED.password_hash,
			profile_picture = EXCLUDED.profile_picture,
			otp = EXCLUDED.otp,
			otp_expiry = EXCLUDED.otp_expiry,
			created_at = EXCLUDED.created_at,
			attempts = 0
			RETURNING id`).
		ToSql()
	if err != nil {
		return tempuser.TemporaryUser{}, fmt.Errorf("failed to build upsert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&t.ID); err != nil {
		return tempuser.TemporaryUser{}, fmt.Errorf("failed to upsert temporary user: %w", err)
	}
	t.Attempts = 0

	return t, nil
}

// GetByEmail finds the pending registration of an email.
func (r *PostgresTempUserRepository) GetByEmail(
	ctx context.Context,
	email string,
) (tempuser.TemporaryUser, error) {
	sql, args, err := r.sb.Select(
		"id",
		"name",
		"username",
		"email",
		"gender",
		"mobile_no",
		"address",
		"password_hash",
		"profile_picture",
		"otp",
		"otp_expiry",
		"attempts",
		"created_at",
	).
		From("temporary_users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return tempuser.TemporaryUser{}, fmt.Errorf("failed to build query: %w", err)
	}

	var t tempuser.TemporaryUser
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&t.ID,
		&t.Name,
		&t.Username,
		&t.Email,
		&t.Gender,
		&t.MobileNo,
		&t.Address,
		&t.PasswordHash,
		&t.ProfilePicture,
		&t.OTP,
		&t.OTPExpiry,
		&t.Attempts,
		&t.CreatedAt,
	)
	if err != nil {
		return tempuser.TemporaryUser{}, fmt.Errorf("failed to get temporary user: %w", postgres.TranslateError(err))
	}

	return t, nil
}

func (r *PostgresTempUserRepository) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	sql, args, err := r.sb.Update("temporary_users").
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING attempts").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build update query: %w", err)
	}

	var attempts int
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("failed to count otp attempt: %w", postgres.TranslateError(err))
	}

	return attempts, nil
}

func (r *PostgresTempUserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("temporary_users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete temporary user: %w", err)
	}

	return nil
}
