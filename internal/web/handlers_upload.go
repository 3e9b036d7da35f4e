package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pricebook/pricebook/internal/logging"
	"github.com/pricebook/pricebook/internal/store"
)

// handleUpload accepts a multipart CSV document, parses it into a catalog,
// persists the raw document, and returns the parsed result.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "read file: "+err.Error())
		return
	}

	document := string(sanitizeUTF8(data))
	parsed, stats := s.parser.Parse(document)

	upload := store.Upload{
		ID:         uuid.New(),
		FileName:   header.Filename,
		ByteSize:   int64(len(data)),
		GroupCount: len(parsed),
		Stats:      stats,
		Document:   document,
	}

	if err := s.store.Insert(ctx, upload); err != nil {
		logging.FromContext(ctx).Error("persist upload", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	logging.WithFields(ctx,
		"upload_id", upload.ID,
		"file", upload.FileName,
	).Info("document ingested",
		"groups", upload.GroupCount,
		"variants", stats.Variants,
		"short_rows", stats.ShortRows,
		"duplicate_skus", stats.DuplicateSKUs,
	)

	writeJSON(ctx, w, http.StatusCreated, uploadResponse{
		Upload:  upload,
		Catalog: s.buildCatalogPayload(parsed),
	})
}

// handleListUploads returns upload history, newest first.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := s.cfg.Upload.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	uploads, err := s.store.List(ctx, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list uploads", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "failed to list uploads")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"uploads": uploads})
}

// handleGetUpload returns one upload's metadata and parse stats.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upload, ok := s.fetchUpload(w, r)
	if !ok {
		return
	}

	writeJSON(ctx, w, http.StatusOK, upload)
}

// handleDeleteUpload removes a stored document.
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "uploadID"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid upload id")
		return
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "upload not found")
			return
		}
		logging.FromContext(ctx).Error("delete upload", "upload_id", id, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "failed to delete upload")
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{"deleted": id.String()})
}

// handleCatalog re-parses the stored document and returns the full grouped
// catalog. The parser is deterministic, so this always matches what the
// uploader saw.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upload, ok := s.fetchUpload(w, r)
	if !ok {
		return
	}

	parsed, _ := s.parser.Parse(upload.Document)
	writeJSON(ctx, w, http.StatusOK, s.buildCatalogPayload(parsed))
}

// fetchUpload resolves the uploadID route param and loads the upload,
// writing the error response itself when it fails.
func (s *Server) fetchUpload(w http.ResponseWriter, r *http.Request) (store.Upload, bool) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "uploadID"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid upload id")
		return store.Upload{}, false
	}

	upload, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "upload not found")
			return store.Upload{}, false
		}
		logging.FromContext(ctx).Error("load upload", "upload_id", id, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "failed to load upload")
		return store.Upload{}, false
	}

	return upload, true
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune so
// the parser always sees valid UTF-8.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
