package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
)

// ImportField is the multipart form field carrying the upload.
const ImportField = "csvFile"

// multipartOverhead is allowed on top of the file size limit for the
// multipart framing and any other form fields.
const multipartOverhead = 1 << 20

type importResponse struct {
	Message string `json:"message"`
	core.ImportResult
}

// handleImport streams the csvFile part straight into the import service
// without buffering the form in memory or on disk first.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if limit := int64(s.cfg.Import.MaxFileSize); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}

	part, err := findFilePart(mr, ImportField)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer part.Close()

	result, err := s.service.ImportProducts(r.Context(), core.ImportFile{
		Name:   part.FileName(),
		Reader: part,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Message: "Import completed", ImportResult: result})
}

// findFilePart advances mr to the first file part named field.
func findFilePart(mr *multipart.Reader, field string) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, core.ErrNoFile
		}
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
		}
		if part.FormName() == field && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	export, err := s.service.PrepareExport(r.Context(), format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName()))
	w.WriteHeader(http.StatusOK)

	// The status is sent; a failure here can only be logged.
	if n, err := export.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("export interrupted",
			"format", format,
			"rows", export.Rows(),
			"bytes_written", n,
			"error", err,
		)
	}
}
