package core

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/inventory/internal/config"
)

// Service implements the inventory operations on top of a Store.
type Service struct {
	store    Store
	limiter  *ImportLimiter
	validate *validator.Validate

	maxFileSize   int64
	importTimeout time.Duration
	tempDir       string

	now func() time.Time
}

// NewService creates a Service using the import settings in cfg.
func NewService(store Store, cfg config.ImportConfig) (*Service, error) {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return nil, fmt.Errorf("create import temp dir: %w", err)
	}

	return &Service{
		store:         store,
		limiter:       NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		validate:      newValidator(),
		maxFileSize:   int64(cfg.MaxFileSize),
		importTimeout: cfg.Timeout,
		tempDir:       tempDir,
		now:           time.Now,
	}, nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ImportStatus reports how many import slots are in use.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
