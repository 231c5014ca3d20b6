package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/message"
)

type PostgresMessageRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresMessageRepository(conn postgres.GenericConn) *PostgresMessageRepository {
	return &PostgresMessageRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresMessageRepository) Insert(ctx context.Context, m message.Message) (message.Message, error) {
	sql, args, err := r.sb.Insert("messages").
		Columns("user_id", "subject", "body", "created_at").
		Values(m.UserID, m.Subject, m.Body, m.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return message.Message{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&m.ID); err != nil {
		return message.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}

	return m, nil
}

// ListByUserID returns the messages of a user, newest first.
func (r *PostgresMessageRepository) ListByUserID(ctx context.Context, userID int64) ([]message.Message, error) {
	sql, args, err := r.sb.Select("id", "user_id", "subject", "body", "created_at").
		From("messages").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	result := []message.Message{}
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Subject, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
