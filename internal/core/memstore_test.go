package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	mu       sync.Mutex
	products map[int64]Product
	history  []HistoryEntry
	nextID   int64
	nextHist int64
	clock    time.Time

	// failInsert makes InsertProduct fail for the named products.
	failInsert map[string]error
	// failHistory makes InsertHistory fail.
	failHistory error
	// raceNames are reported as free by ProductIDByName but rejected by
	// InsertProduct, as when a concurrent import wins the race.
	raceNames map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]Product{},
		clock:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// seed inserts products directly, one second apart.
func (m *memStore) seed(ps ...NewProduct) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		created, err := m.InsertProduct(context.Background(), p)
		if err != nil {
			panic(err)
		}
		out = append(out, created)
	}
	return out
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) GetProduct(_ context.Context, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *memStore) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	return m.GetProduct(ctx, id)
}

func (m *memStore) ProductIDByName(_ context.Context, name string, excludeID int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.products {
		if p.Name == name && id != excludeID {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (m *memStore) InsertProduct(_ context.Context, np NewProduct) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failInsert[np.Name]; err != nil {
		return Product{}, err
	}
	if m.raceNames[np.Name] {
		return Product{}, fmt.Errorf("insert %q: %w", np.Name, ErrConflict)
	}
	for _, p := range m.products {
		if p.Name == np.Name {
			return Product{}, fmt.Errorf("insert %q: %w", np.Name, ErrConflict)
		}
	}

	m.nextID++
	now := m.tick()
	p := Product{
		ID:        m.nextID,
		Name:      np.Name,
		Unit:      np.Unit,
		Category:  np.Category,
		Brand:     np.Brand,
		Stock:     np.Stock,
		Status:    np.Status,
		Image:     np.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *memStore) UpdateProduct(_ context.Context, id int64, patch ProductPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if patch.Name != nil {
		for oid, o := range m.products {
			if oid != id && o.Name == *patch.Name {
				return fmt.Errorf("rename %d: %w", id, ErrConflict)
			}
		}
		p.Name = *patch.Name
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	p.UpdatedAt = m.tick()
	m.products[id] = p
	return nil
}

func (m *memStore) sorted(keep func(Product) bool) []Product {
	var out []Product
	for _, p := range m.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out
}

func (m *memStore) ListProducts(_ context.Context, f ListFilter) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.sorted(func(p Product) bool {
		if f.Category != "" && p.Category != f.Category {
			return false
		}
		return f.Search == "" || strings.Contains(p.Name, f.Search)
	})
	if f.Offset >= len(all) {
		return nil, nil
	}
	all = all[f.Offset:]
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}

func (m *memStore) SearchProducts(_ context.Context, term string) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return byName(m.sorted(func(p Product) bool { return strings.Contains(p.Name, term) })), nil
}

func (m *memStore) Categories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cats []string
	for _, p := range m.products {
		if p.Category != "" && !slices.Contains(cats, p.Category) {
			cats = append(cats, p.Category)
		}
	}
	slices.Sort(cats)
	return cats, nil
}

func (m *memStore) AllProducts(_ context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return byName(m.sorted(func(Product) bool { return true })), nil
}

func byName(ps []Product) []Product {
	slices.SortStableFunc(ps, func(a, b Product) int { return strings.Compare(a.Name, b.Name) })
	return ps
}

func (m *memStore) InsertHistory(_ context.Context, e NewHistoryEntry) (HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failHistory != nil {
		return HistoryEntry{}, m.failHistory
	}
	if _, ok := m.products[e.ProductID]; !ok {
		return HistoryEntry{}, errors.New("history references missing product")
	}
	m.nextHist++
	h := HistoryEntry{
		ID:          m.nextHist,
		ProductID:   e.ProductID,
		OldQuantity: e.OldQuantity,
		NewQuantity: e.NewQuantity,
		ChangeDate:  e.ChangeDate,
		UserInfo:    e.UserInfo,
	}
	m.history = append(m.history, h)
	return h, nil
}

func (m *memStore) ListHistory(_ context.Context, productID int64) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []HistoryEntry
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].ProductID == productID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}

// WithTx snapshots the store and restores it if fn fails.
func (m *memStore) WithTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	products := make(map[int64]Product, len(m.products))
	for k, v := range m.products {
		products[k] = v
	}
	history := slices.Clone(m.history)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.products = products
		m.history = history
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }
