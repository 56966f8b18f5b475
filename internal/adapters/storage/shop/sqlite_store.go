package shop

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/shop"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

const productColumns = "id, gym_id, name, price_cents, stock, archived"
const orderColumns = "id, gym_id, member_id, status, total_cents, created_at, updated_at"
const itemColumns = "id, order_id, product_id, product_name, quantity, unit_price_cents"

// SQLiteStore implements ProductStore and OrderStore using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new shop store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ ProductStore = (*SQLiteStore)(nil)
var _ OrderStore = (*SQLiteStore)(nil)

// GetByID retrieves a Product by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM product WHERE id = ?", id)
	entity, err := scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Product{}, fmt.Errorf("product not found: %w", err)
	}
	return entity, err
}

// Save persists a Product to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gym_id=excluded.gym_id, name=excluded.name, price_cents=excluded.price_cents,
		   stock=excluded.stock, archived=excluded.archived`,
		entity.ID, entity.GymID, entity.Name, entity.PriceCents, entity.Stock, entity.Archived)
	return err
}

// Delete removes a Product from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM product WHERE id = ?", id)
	return err
}

// List retrieves the products for a gym ordered by name.
// PRE: gymID is non-empty
// POST: Returns matching entities, archived products only when requested
func (s *SQLiteStore) List(ctx context.Context, gymID string, includeArchived bool) ([]domain.Product, error) {
	query := "SELECT " + productColumns + " FROM product WHERE gym_id = ?"
	if !includeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Product
	for rows.Next() {
		entity, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// GetOrderByID retrieves an Order with its items.
// PRE: id is non-empty
// POST: Returns the order with Items populated, or an error if not found
func (s *SQLiteStore) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM shop_order WHERE id = ?", id)
	order, err := scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Order{}, fmt.Errorf("order not found: %w", err)
	}
	if err != nil {
		return domain.Order{}, err
	}
	order.Items, err = s.loadItems(ctx, order.ID)
	return order, err
}

// SaveOrder persists an Order and its items in one transaction. Items are
// replaced wholesale so the stored rows always mirror the struct.
// PRE: entity has been validated, items carry captured unit prices
// POST: Order and all items are persisted atomically
func (s *SQLiteStore) SaveOrder(ctx context.Context, entity domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var updatedAt any
	if !entity.UpdatedAt.IsZero() {
		updatedAt = entity.UpdatedAt.Format(timeLayout)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO shop_order (`+orderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   gym_id=excluded.gym_id, member_id=excluded.member_id, status=excluded.status,
		   total_cents=excluded.total_cents, updated_at=excluded.updated_at`,
		entity.ID, entity.GymID, entity.MemberID, entity.Status, entity.TotalCents,
		entity.CreatedAt.Format(timeLayout), updatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM shop_order_item WHERE order_id = ?", entity.ID); err != nil {
		return err
	}
	for _, it := range entity.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO shop_order_item (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, entity.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPriceCents)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListOrders retrieves orders matching the filter, newest first. Items are
// loaded for each order.
// PRE: filter has valid parameters
// POST: Returns matching orders ordered by created_at desc
func (s *SQLiteStore) ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM shop_order WHERE 1=1"
	var args []any

	if filter.GymID != "" {
		query += " AND gym_id = ?"
		args = append(args, filter.GymID)
	}
	if filter.MemberID != "" {
		query += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Items, err = s.loadItems(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *SQLiteStore) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM shop_order_item WHERE order_id = ? ORDER BY rowid", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPriceCents)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// scanProduct extracts a Product from a row scanner function.
func scanProduct(scan func(dest ...interface{}) error) (domain.Product, error) {
	var entity domain.Product
	err := scan(&entity.ID, &entity.GymID, &entity.Name, &entity.PriceCents, &entity.Stock, &entity.Archived)
	if err != nil {
		return domain.Product{}, err
	}
	return entity, nil
}

// scanOrder extracts an Order (without items) from a row scanner function.
func scanOrder(scan func(dest ...interface{}) error) (domain.Order, error) {
	var entity domain.Order
	var createdAt string
	var updatedAt sql.NullString
	err := scan(&entity.ID, &entity.GymID, &entity.MemberID, &entity.Status,
		&entity.TotalCents, &createdAt, &updatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	entity.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, err = time.Parse(timeLayout, updatedAt.String)
		if err != nil {
			return domain.Order{}, fmt.Errorf("failed to parse updated_at: %w", err)
		}
	}
	return entity, nil
}
