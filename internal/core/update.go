package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// UpdateProduct applies a partial update to product id and returns the
// stored product. A change of stock quantity appends a history entry in the
// same transaction.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req ProductUpdate) (Product, error) {
	if id <= 0 {
		return Product{}, &ValidationError{Field: "id", Message: "must be a positive integer"}
	}

	req = req.normalized()
	if err := s.validateStruct(req); err != nil {
		return Product{}, err
	}

	patch := req.patch()
	userInfo := DefaultAttribution
	if req.UserInfo != nil && strings.TrimSpace(*req.UserInfo) != "" {
		userInfo = strings.TrimSpace(*req.UserInfo)
	}

	var (
		updated  Product
		oldStock int
		recorded bool
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		current, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if patch.Name != nil && *patch.Name != current.Name {
			_, taken, err := tx.ProductIDByName(ctx, *patch.Name, id)
			if err != nil {
				return fmt.Errorf("check name: %w", err)
			}
			if taken {
				return fmt.Errorf("%w: name %q belongs to another product", ErrConflict, *patch.Name)
			}
		}

		if patch.Empty() {
			return &ValidationError{Message: "no valid fields to update"}
		}

		if err := tx.UpdateProduct(ctx, id, patch); err != nil {
			return err
		}

		if patch.Stock != nil && *patch.Stock != current.Stock {
			_, err := tx.InsertHistory(ctx, NewHistoryEntry{
				ProductID:   id,
				OldQuantity: current.Stock,
				NewQuantity: *patch.Stock,
				ChangeDate:  s.now().UTC(),
				UserInfo:    userInfo,
			})
			if err != nil {
				return fmt.Errorf("record stock change: %w", err)
			}
			oldStock, recorded = current.Stock, true
		}

		updated, err = tx.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		return Product{}, err
	}

	logger := logging.FromContext(ctx)
	if recorded {
		stockChangesTotal.Inc()
		logger.Info("stock changed",
			"product_id", id,
			"old_quantity", oldStock,
			"new_quantity", updated.Stock,
			"user_info", userInfo,
		)
	}
	logger.Debug("product updated", "product_id", id)
	return updated, nil
}

// validateStruct runs the validate tags on v and converts failures into
// ValidationErrors.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{Field: fe.Field(), Message: describeFieldError(fe)})
	}
	return out
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		if fe.Param() == "1" && fe.Kind() == reflect.String {
			return "must not be empty"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
