package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/postgres"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
)

// PostgresMenuRepository stores menu items.
type PostgresMenuRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresMenuRepository creates a new Postgres menu repository.
func NewPostgresMenuRepository(conn postgres.GenericConn) *PostgresMenuRepository {
	return &PostgresMenuRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresMenuRepository) Insert(ctx context.Context, m menu.Menu) (menu.Menu, error) {
	sql, args, err := r.sb.Insert("menus").
		Columns("restaurant_id", "item_name", "description", "price", "available", "created_at", "updated_at").
		Values(m.RestaurantID, m.ItemName, m.Description, m.Price, m.Available, m.CreatedAt, m.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return menu.Menu{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&m.ID); err != nil {
		return menu.Menu{}, fmt.Errorf("failed to insert menu: %w", postgres.TranslateError(err))
	}

	return m, nil
}

// Query retrieves menus based on filter criteria.
func (r *PostgresMenuRepository) Query(ctx context.Context, filter *menu.QueryMenusModel) ([]menu.Menu, error) {
	query := r.sb.
		Select("id", "restaurant_id", "item_name", "description", "price", "available", "created_at", "updated_at").
		From("menus").
		OrderBy("id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.RestaurantIds) > 0 {
		query = query.Where(sq.Eq{"restaurant_id": filter.RestaurantIds})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menus: %w", err)
	}
	defer rows.Close()

	result := []menu.Menu{}
	for rows.Next() {
		var m menu.Menu
		err := rows.Scan(
			&m.ID,
			&m.RestaurantID,
			&m.ItemName,
			&m.Description,
			&m.Price,
			&m.Available,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu: %w", err)
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresMenuRepository) Update(ctx context.Context, m menu.Menu) (menu.Menu, error) {
	sql, args, err := r.sb.Update("menus").
		Set("item_name", m.ItemName).
		Set("description", m.Description).
		Set("price", m.Price).
		Set("available", m.Available).
		Set("updated_at", m.UpdatedAt).
		Where(sq.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return menu.Menu{}, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return menu.Menu{}, fmt.Errorf("failed to update menu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return menu.Menu{}, dalerrors.ErrNotFound
	}

	return m, nil
}

func (r *PostgresMenuRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("menus").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete menu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dalerrors.ErrNotFound
	}

	return nil
}
