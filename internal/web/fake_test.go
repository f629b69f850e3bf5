package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
)

// fakeService implements Service with overridable functions. Unset
// functions return zero values.
type fakeService struct {
	list    func(core.ListFilter) ([]core.Product, error)
	search  func(string) ([]core.Product, error)
	cats    func() ([]string, error)
	history func(int64) (core.ProductHistory, error)
	update  func(int64, core.ProductUpdate) (core.Product, error)
	imp     func(core.ImportFile) (core.ImportResult, error)
	export  func(core.ExportFormat) (*core.Export, error)
	ping    func() error
}

func (f *fakeService) ListProducts(_ context.Context, filter core.ListFilter) ([]core.Product, error) {
	if f.list == nil {
		return []core.Product{}, nil
	}
	return f.list(filter)
}

func (f *fakeService) SearchProducts(_ context.Context, term string) ([]core.Product, error) {
	if f.search == nil {
		return []core.Product{}, nil
	}
	return f.search(term)
}

func (f *fakeService) Categories(context.Context) ([]string, error) {
	if f.cats == nil {
		return []string{}, nil
	}
	return f.cats()
}

func (f *fakeService) ProductHistory(_ context.Context, id int64) (core.ProductHistory, error) {
	if f.history == nil {
		return core.ProductHistory{}, core.ErrNotFound
	}
	return f.history(id)
}

func (f *fakeService) UpdateProduct(_ context.Context, id int64, req core.ProductUpdate) (core.Product, error) {
	if f.update == nil {
		return core.Product{}, core.ErrNotFound
	}
	return f.update(id, req)
}

func (f *fakeService) ImportProducts(_ context.Context, file core.ImportFile) (core.ImportResult, error) {
	if f.imp == nil {
		return core.ImportResult{Duplicates: []core.Duplicate{}}, nil
	}
	return f.imp(file)
}

func (f *fakeService) PrepareExport(_ context.Context, format core.ExportFormat) (*core.Export, error) {
	if f.export == nil {
		return nil, core.ErrNothingToExport
	}
	return f.export(format)
}

func (f *fakeService) ImportStatus() core.ImportLimiterStatus {
	return core.ImportLimiterStatus{Available: 2, MaxConcurrent: 2}
}

func (f *fakeService) Ping(context.Context) error {
	if f.ping == nil {
		return nil
	}
	return f.ping()
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			APIPrefix:      "/api",
			RequestTimeout: 5 * time.Second,
		},
		Import: config.ImportConfig{MaxFileSize: 1 << 20},
		Rate: config.RateLimitConfig{
			RequestsPerMinute: 100,
			ImportLimit:       1,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, svc Service) *Server {
	t.Helper()
	return newTestServerWith(t, svc, testConfig())
}

func newTestServerWith(t *testing.T, svc Service, cfg *config.Config) *Server {
	t.Helper()
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}
