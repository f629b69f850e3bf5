package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/inventory/internal/logging"
)

// DuplicateReason is reported for rows whose name already exists.
const DuplicateReason = "Name already exists"

type rowOutcome int

const (
	rowAdded rowOutcome = iota
	rowSkipped
	rowDuplicate
)

func (o rowOutcome) String() string {
	switch o {
	case rowAdded:
		return "added"
	case rowDuplicate:
		return "duplicate"
	default:
		return "skipped"
	}
}

// ImportProducts inserts the products listed in file.
//
// Rows are handled one at a time and independently. The import keeps
// running if the client disconnects, bounded by the configured import
// timeout. The spooled copy of the upload is removed before returning.
func (s *Service) ImportProducts(ctx context.Context, file ImportFile) (ImportResult, error) {
	if file.Reader == nil {
		return ImportResult{}, ErrNoFile
	}
	if s.maxFileSize > 0 && file.Size > s.maxFileSize {
		return ImportResult{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, file.Size)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		importRunsTotal.WithLabelValues("rejected").Inc()
		return ImportResult{}, err
	}
	defer s.limiter.Release()

	importID := uuid.NewString()
	logger := logging.WithFields(ctx, "import_id", importID, "file", file.Name)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.importTimeout)
	defer cancel()

	start := time.Now()
	logger.Info("import started", "size", file.Size)

	path, err := s.spool(importID, file)
	if err != nil {
		importRunsTotal.WithLabelValues("failed").Inc()
		return ImportResult{}, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove spooled import file", "path", path, "error", err)
		}
	}()

	result, err := s.importRows(ctx, logger, fileRows(path, file.Name))
	if err != nil {
		importRunsTotal.WithLabelValues("failed").Inc()
		logger.Error("import failed",
			"added", result.Added,
			"skipped", result.Skipped,
			"error", err,
		)
		return result, err
	}

	importRunsTotal.WithLabelValues("completed").Inc()
	importDuration.Observe(time.Since(start).Seconds())
	logger.Info("import completed",
		"added", result.Added,
		"skipped", result.Skipped,
		"duplicates", len(result.Duplicates),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// spool copies the upload into the temp dir so workbooks can be opened with
// random access and the request body can be released early.
func (s *Service) spool(importID string, file ImportFile) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Name))
	f, err := os.CreateTemp(s.tempDir, "import-"+importID+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}

	src := file.Reader
	if s.maxFileSize > 0 {
		src = io.LimitReader(src, s.maxFileSize+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("spool upload: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("spool upload: %w", closeErr)
	case s.maxFileSize > 0 && n > s.maxFileSize:
		err = fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// importRows applies every row in order. A read error ends the import; a
// row-level failure only skips that row.
func (s *Service) importRows(ctx context.Context, logger *slog.Logger, rows iter.Seq2[ImportRow, error]) (ImportResult, error) {
	result := ImportResult{Duplicates: []Duplicate{}}

	for row, err := range rows {
		if err != nil {
			return result, err
		}
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import interrupted after %d rows: %w", result.Added+result.Skipped, err)
		}

		outcome, name := s.importRow(ctx, logger, row)
		importRowsTotal.WithLabelValues(outcome.String()).Inc()

		switch outcome {
		case rowAdded:
			result.Added++
		case rowDuplicate:
			result.Skipped++
			result.Duplicates = append(result.Duplicates, Duplicate{Name: name, Reason: DuplicateReason})
		default:
			result.Skipped++
		}
	}
	return result, nil
}

func (s *Service) importRow(ctx context.Context, logger *slog.Logger, row ImportRow) (rowOutcome, string) {
	name := row.Get("name")
	if name == "" {
		logger.Debug("row skipped: empty name", "line", row.Line)
		return rowSkipped, ""
	}

	_, exists, err := s.store.ProductIDByName(ctx, name, 0)
	if err != nil {
		logger.Warn("row skipped: name lookup failed", "line", row.Line, "name", name, "error", err)
		return rowSkipped, name
	}
	if exists {
		return rowDuplicate, name
	}

	np, err := productFromRow(name, row)
	if err != nil {
		logger.Warn("row skipped", "line", row.Line, "name", name, "error", err)
		return rowSkipped, name
	}

	if _, err := s.store.InsertProduct(ctx, np); err != nil {
		if errors.Is(err, ErrConflict) {
			return rowDuplicate, name
		}
		logger.Warn("row skipped: insert failed", "line", row.Line, "name", name, "error", err)
		return rowSkipped, name
	}
	return rowAdded, name
}

// productFromRow maps an import row to a NewProduct. Stock goes through
// parseStock. Status defaults to active; any other value than active or
// inactive rejects the row.
func productFromRow(name string, row ImportRow) (NewProduct, error) {
	status := StatusActive
	if raw := row.Get("status"); raw != "" {
		status = Status(strings.ToLower(raw))
		if !status.Valid() {
			return NewProduct{}, fmt.Errorf("invalid status %q", raw)
		}
	}

	return NewProduct{
		Name:     name,
		Unit:     row.Get("unit"),
		Category: row.Get("category"),
		Brand:    row.Get("brand"),
		Stock:    parseStock(row.Get("stock")),
		Status:   status,
		Image:    row.Get("image"),
	}, nil
}

// parseStock reads the leading integer of s, so "12 pcs" gives 12 and "5.0"
// gives 5. Missing, negative or out-of-range quantities become 0.
func parseStock(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n > MaxStock {
		return 0
	}
	return n
}
