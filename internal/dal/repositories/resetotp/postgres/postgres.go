package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/resetotp"
)

// PostgresResetOTPRepository stores one password reset code per user.
type PostgresResetOTPRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresResetOTPRepository creates a new Postgres reset OTP repository.
func NewPostgresResetOTPRepository(conn postgres.GenericConn) *PostgresResetOTPRepository {
	return &PostgresResetOTPRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Upsert replaces the user's code and clears its verification.
func (r *PostgresResetOTPRepository) Upsert(
	ctx context.Context,
	f resetotp.ForgotPasswordOtp,
) (resetotp.ForgotPasswordOtp, error) {
	sql, args, err := r.sb.Insert("forgot_password_otps").
		Columns("user_id", "otp", "created_at", "verified_at").
		Values(f.UserID, f.OTP, f.CreatedAt, nil).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			otp = EXCLUDED.otp,
			created_at = EXCLUDED.created_at,
			verified_at = NULL,
			attempts = 0
			RETURNING id`).
		ToSql()
	if err != nil {
		return resetotp.ForgotPasswordOtp{}, fmt.Errorf("failed to build upsert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&f.ID); err != nil {
		return resetotp.ForgotPasswordOtp{}, fmt.Errorf("failed to upsert reset otp: %w", err)
	}
	f.VerifiedAt = nil
	f.Attempts = 0

	return f, nil
}

func (r *PostgresResetOTPRepository) GetByUserID(
	ctx context.Context,
	userID int64,
) (resetotp.ForgotPasswordOtp, error) {
	sql, args, err := r.sb.Select("id", "user_id", "otp", "created_at", "verified_at", "attempts").
		From("forgot_password_otps").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return resetotp.ForgotPasswordOtp{}, fmt.Errorf("failed to build query: %w", err)
	}

	var f resetotp.ForgotPasswordOtp
	err = r.conn.QueryRow(ctx, sql, args...).Scan(&f.ID, &f.UserID, &f.OTP, &f.CreatedAt, &f.VerifiedAt, &f.Attempts)
	if err != nil {
		return resetotp.ForgotPasswordOtp{}, fmt.Errorf("failed to get reset otp: %w", postgres.TranslateError(err))
	}

	return f, nil
}

func (r *PostgresResetOTPRepository) MarkVerified(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("forgot_password_otps").
		Set("verified_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to mark reset otp verified: %w", err)
	}

	return nil
}

func (r *PostgresResetOTPRepository) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	sql, args, err := r.sb.Update("forgot_password_otps").
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

func (r *PostgresResetOTPRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("forgot_password_otps").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete reset otp: %w", err)
	}

	return nil
}
