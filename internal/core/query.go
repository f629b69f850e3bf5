package core

import (
	"context"
	"fmt"
	"strings"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// ListProducts returns a page of products, newest first. A zero limit means
// DefaultListLimit; larger limits are capped at MaxListLimit.
func (s *Service) ListProducts(ctx context.Context, f ListFilter) ([]Product, error) {
	if f.Limit < 0 {
		return nil, &ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if f.Offset < 0 {
		return nil, &ValidationError{Field: "offset", Message: "must not be negative"}
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	f.Limit = min(f.Limit, MaxListLimit)
	f.Category = strings.TrimSpace(f.Category)
	f.Search = strings.TrimSpace(f.Search)

	products, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return nonNil(products), nil
}

// SearchProducts returns every product whose name contains term.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &ValidationError{Field: "name", Message: "search term is required"}
	}

	products, err := s.store.SearchProducts(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return nonNil(products), nil
}

// Categories returns the distinct categories in use, sorted.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return nonNil(cats), nil
}

// ProductHistory returns product id with its stock changes, newest first.
func (s *Service) ProductHistory(ctx context.Context, id int64) (ProductHistory, error) {
	if id <= 0 {
		return ProductHistory{}, &ValidationError{Field: "id", Message: "must be a positive integer"}
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return ProductHistory{}, err
	}

	entries, err := s.store.ListHistory(ctx, id)
	if err != nil {
		return ProductHistory{}, fmt.Errorf("list history: %w", err)
	}

	return ProductHistory{
		Product: ProductSummary{ID: p.ID, Name: p.Name},
		History: nonNil(entries),
	}, nil
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
