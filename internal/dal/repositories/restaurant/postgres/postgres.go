package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
	"github.com/jackc/pgx/v5"
)

type PostgresRestaurantRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresRestaurantRepository(conn postgres.GenericConn) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanRestaurant(row pgx.Row) (restaurant.Restaurant, error) {
	var rs restaurant.Restaurant
	err := row.Scan(&rs.ID, &rs.Name, &rs.Address, &rs.Contact, &rs.CreatedAt)

	return rs, err
}

func (r *PostgresRestaurantRepository) selectRestaurants() sq.SelectBuilder {
	return r.sb.Select("id", "name", "address", "contact_no", "created_at").From("restaurants")
}

func (r *PostgresRestaurantRepository) Insert(
	ctx context.Context,
	rs restaurant.Restaurant,
) (restaurant.Restaurant, error) {
	sql, args, err := r.sb.Insert("restaurants").
		Columns("name", "address", "contact_no", "created_at").
		Values(rs.Name, rs.Address, rs.Contact, rs.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&rs.ID); err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("failed to insert restaurant: %w", postgres.TranslateError(err))
	}

	return rs, nil
}

func (r *PostgresRestaurantRepository) GetByID(ctx context.Context, id int64) (restaurant.Restaurant, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *PostgresRestaurantRepository) GetByName(ctx context.Context, name string) (restaurant.Restaurant, error) {
	return r.getOne(ctx, sq.Eq{"name": name})
}

func (r *PostgresRestaurantRepository) getOne(ctx context.Context, where sq.Eq) (restaurant.Restaurant, error) {
	sql, args, err := r.selectRestaurants().Where(where).ToSql()
	if err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("failed to build query: %w", err)
	}

	rs, err := scanRestaurant(r.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("failed to get restaurant: %w", postgres.TranslateError(err))
	}

	return rs, nil
}

func (r *PostgresRestaurantRepository) List(ctx context.Context) ([]restaurant.Restaurant, error) {
	sql, args, err := r.selectRestaurants().OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurants: %w", err)
	}
	defer rows.Close()

	result := []restaurant.Restaurant{}
	for rows.Next() {
		rs, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		result = append(result, rs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
