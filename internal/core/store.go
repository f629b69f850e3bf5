package core

import "context"

// Store persists products and their stock history.
//
// Lookups of a missing product return an error wrapping ErrNotFound.
// Inserting or renaming to a name that already exists returns an error
// wrapping ErrConflict.
type Store interface {
	GetProduct(ctx context.Context, id int64) (Product, error)

	// GetProductForUpdate is GetProduct with a row lock held until the
	// surrounding transaction ends. Outside WithTx it behaves like GetProduct.
	GetProductForUpdate(ctx context.Context, id int64) (Product, error)

	// ProductIDByName looks up a product by exact name, ignoring the product
	// with id excludeID (0 excludes nothing).
	ProductIDByName(ctx context.Context, name string, excludeID int64) (int64, bool, error)

	InsertProduct(ctx context.Context, p NewProduct) (Product, error)
	UpdateProduct(ctx context.Context, id int64, patch ProductPatch) error

	// ListProducts returns products newest first.
	ListProducts(ctx context.Context, f ListFilter) ([]Product, error)

	// SearchProducts returns products whose name contains term, by name.
	SearchProducts(ctx context.Context, term string) ([]Product, error)

	// Categories returns the distinct non-empty categories in ascending order.
	Categories(ctx context.Context) ([]string, error)

	// AllProducts returns every product, by name.
	AllProducts(ctx context.Context) ([]Product, error)

	InsertHistory(ctx context.Context, e NewHistoryEntry) (HistoryEntry, error)

	// ListHistory returns a product's history entries, newest first.
	ListHistory(ctx context.Context, productID int64) ([]HistoryEntry, error)

	// WithTx runs fn against a transactional Store. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}
