// Package core holds the inventory domain: product records, the stock
// change log, and the services that import, export, update and query them.
//
// The package has no HTTP or SQL dependencies. Persistence goes through the
// [Store] interface, implemented for PostgreSQL by package store and by an
// in-memory fake in tests.
//
// # Import
//
// [Service.ImportProducts] spools the upload to a temporary file, reads it
// row by row (CSV, or XLSX by file extension) and handles each row on its
// own. Rows without a name are skipped. Rows whose name already exists are
// skipped and reported as duplicates. A failing
// row never aborts the batch, and the batch is not wrapped in a transaction;
// partial success is reported through [ImportResult].
//
// # Updates and history
//
// [Service.UpdateProduct] applies a partial update inside one store
// transaction and appends a [HistoryEntry] when the stock quantity changes.
// History entries are never modified afterwards.
//
// # Errors
//
// Services return errors wrapping the sentinels in errors.go. [MapError]
// turns any error into a client-safe [UserMessage] with a support code.
package core
