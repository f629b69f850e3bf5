package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
)

// pageData is what the inventory page renders.
type pageData struct {
	APIPrefix  string
	Products   []core.Product
	Categories []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.ListProducts(r.Context(), core.ListFilter{})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	categories, err := s.service.Categories(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := inventoryPage(pageData{
		APIPrefix:  s.cfg.Server.APIPrefix,
		Products:   products,
		Categories: categories,
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render inventory page", "error", err)
	}
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}th,td{border-bottom:1px solid #ddd;padding:.4rem;text-align:left}
.inactive{color:#999}.tags span{background:#eef;border-radius:4px;margin-right:.3rem;padding:.1rem .4rem}`

// inventoryPage renders the product table, the category list and the
// import and export controls.
func inventoryPage(d pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		e := templ.EscapeString[string]
		pw := &pageWriter{w: w}

		pw.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Inventory</title><style>%s</style></head><body>`, pageStyle)
		pw.printf(`<h1>Inventory</h1>`)

		pw.printf(`<form method="post" action="%s/products/import" enctype="multipart/form-data">`, e(d.APIPrefix))
		pw.printf(`<input type="file" name="%s" accept=".csv,.xlsx"> <button type="submit">Import</button></form>`, ImportField)
		pw.printf(`<p>Export: <a href="%[1]s/products/export?format=csv">CSV</a> | <a href="%[1]s/products/export?format=xlsx">Excel</a></p>`, e(d.APIPrefix))

		pw.printf(`<h2>Categories</h2><p class="tags">`)
		if len(d.Categories) == 0 {
			pw.printf(`none`)
		}
		for _, c := range d.Categories {
			pw.printf(`<span>%s</span>`, e(c))
		}
		pw.printf(`</p>`)

		pw.printf(`<h2>Products</h2>`)
		if len(d.Products) == 0 {
			pw.printf(`<p>No products yet. Import a CSV file to get started.</p>`)
		} else {
			pw.printf(`<table><thead><tr><th>Name</th><th>Unit</th><th>Category</th><th>Brand</th><th>Stock</th><th>Status</th></tr></thead><tbody>`)
			for _, p := range d.Products {
				pw.printf(`<tr class="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					e(string(p.Status)), e(p.Name), e(p.Unit), e(p.Category), e(p.Brand),
					strconv.Itoa(p.Stock), e(string(p.Status)))
			}
			pw.printf(`</tbody></table>`)
		}

		pw.printf(`</body></html>`)
		return pw.err
	})
}

// pageWriter keeps the first write error so rendering reads linearly.
type pageWriter struct {
	w   io.Writer
	err error
}

func (pw *pageWriter) printf(format string, args ...any) {
	if pw.err != nil {
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, format, args...)
}
