// Package store implements core.Store on PostgreSQL with pgx. All queries
// are plain SQL; the schema lives in internal/database/migrations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/inventory/internal/core"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const productColumns = `id, name, unit, category, brand, stock, status, image, created_at, updated_at`

const historyColumns = `id, product_id, old_quantity, new_quantity, change_date, user_info`

// Postgres is the PostgreSQL-backed core.Store.
type Postgres struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

var _ core.Store = (*Postgres)(nil)

// New returns a store running queries on pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, db: pool}
}

// WithTx runs fn inside a transaction. Calls nested in an existing
// transaction reuse it.
func (s *Postgres) WithTx(ctx context.Context, fn func(core.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&Postgres{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	return s.getProduct(ctx, id, "")
}

func (s *Postgres) GetProductForUpdate(ctx context.Context, id int64) (core.Product, error) {
	return s.getProduct(ctx, id, " FOR UPDATE")
}

func (s *Postgres) getProduct(ctx context.Context, id int64, lock string) (core.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1` + lock

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return core.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Product{}, fmt.Errorf("product %d: %w", id, core.ErrNotFound)
		}
		return core.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (s *Postgres) ProductIDByName(ctx context.Context, name string, excludeID int64) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT id FROM products WHERE name = $1 AND id <> $2 LIMIT 1`,
		name, excludeID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("look up product name: %w", err)
	}
	return id, true, nil
}

func (s *Postgres) InsertProduct(ctx context.Context, np core.NewProduct) (core.Product, error) {
	status := np.Status
	if status == "" {
		status = core.StatusActive
	}

	rows, err := s.db.Query(ctx,
		`INSERT INTO products (name, unit, category, brand, stock, status, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		np.Name, np.Unit, np.Category, np.Brand, np.Stock, string(status), np.Image,
	)
	var p core.Product
	if err == nil {
		p, err = pgx.CollectExactlyOneRow(rows, scanProduct)
	}
	switch {
	case isUniqueViolation(err):
		return core.Product{}, fmt.Errorf("%w: product %q already exists", core.ErrConflict, np.Name)
	case err != nil:
		return core.Product{}, fmt.Errorf("insert product %q: %w", np.Name, err)
	}
	return p, nil
}

func (s *Postgres) UpdateProduct(ctx context.Context, id int64, patch core.ProductPatch) error {
	set, args := buildUpdateSet(patch)
	if set == "" {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, set, len(args))
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product name already exists", core.ErrConflict)
		}
		return fmt.Errorf("update product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// buildUpdateSet renders the SET clause for the non-nil fields of patch,
// numbering placeholders from $1. updated_at is maintained by a trigger.
func buildUpdateSet(patch core.ProductPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Unit != nil {
		add("unit", *patch.Unit)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Brand != nil {
		add("brand", *patch.Brand)
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Image != nil {
		add("image", *patch.Image)
	}
	return strings.Join(sets, ", "), args
}

func (s *Postgres) ListProducts(ctx context.Context, f core.ListFilter) ([]core.Product, error) {
	where, args := buildListWhere(f)
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(
		`SELECT %s FROM products %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args),
	)
	return s.queryProducts(ctx, query, args...)
}

// buildListWhere renders the WHERE clause for f, numbering placeholders
// from $1. It returns "" when f has no filters.
func buildListWhere(f core.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		conds = append(conds, fmt.Sprintf(`name LIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *Postgres) SearchProducts(ctx context.Context, term string) ([]core.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE name LIKE $1 ESCAPE '\' ORDER BY name ASC`,
		likePattern(term),
	)
}

func (s *Postgres) AllProducts(ctx context.Context) ([]core.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
}

func (s *Postgres) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	cats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return cats, nil
}

func (s *Postgres) queryProducts(ctx context.Context, query string, args ...any) ([]core.Product, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return products, nil
}

func (s *Postgres) InsertHistory(ctx context.Context, e core.NewHistoryEntry) (core.HistoryEntry, error) {
	rows, err := s.db.Query(ctx,
		`INSERT INTO inventory_history (product_id, old_quantity, new_quantity, change_date, user_info)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+historyColumns,
		e.ProductID, e.OldQuantity, e.NewQuantity, e.ChangeDate, e.UserInfo,
	)
	var h core.HistoryEntry
	if err == nil {
		h, err = pgx.CollectExactlyOneRow(rows, scanHistory)
	}
	switch {
	case isForeignKeyViolation(err):
		return core.HistoryEntry{}, fmt.Errorf("history for product %d: %w", e.ProductID, core.ErrNotFound)
	case err != nil:
		return core.HistoryEntry{}, fmt.Errorf("insert history: %w", err)
	}
	return h, nil
}

func (s *Postgres) ListHistory(ctx context.Context, productID int64) ([]core.HistoryEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+historyColumns+` FROM inventory_history
		WHERE product_id = $1
		ORDER BY change_date DESC, id DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanHistory)
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return entries, nil
}

func scanProduct(row pgx.CollectableRow) (core.Product, error) {
	var (
		p      core.Product
		status string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Unit, &p.Category, &p.Brand,
		&p.Stock, &status, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Status = core.Status(status)
	return p, err
}

func scanHistory(row pgx.CollectableRow) (core.HistoryEntry, error) {
	var h core.HistoryEntry
	err := row.Scan(&h.ID, &h.ProductID, &h.OldQuantity, &h.NewQuantity, &h.ChangeDate, &h.UserInfo)
	return h, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches term literally anywhere in a value.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
