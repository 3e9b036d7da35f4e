package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pricebook/pricebook/internal/catalog"
	"github.com/pricebook/pricebook/internal/config"
	"github.com/pricebook/pricebook/internal/currency"
	"github.com/pricebook/pricebook/internal/store"
)

// fakeStore is an in-memory UploadStore.
type fakeStore struct {
	uploads map[uuid.UUID]store.Upload
	order   []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[uuid.UUID]store.Upload)}
}

func (f *fakeStore) Insert(_ context.Context, u store.Upload) error {
	u.UploadedAt = time.Now()
	f.uploads[u.ID] = u
	f.order = append(f.order, u.ID)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (store.Upload, error) {
	u, ok := f.uploads[id]
	if !ok {
		return store.Upload{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) List(_ context.Context, limit int) ([]store.Upload, error) {
	out := make([]store.Upload, 0, limit)
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		u := f.uploads[f.order[i]]
		u.Document = ""
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.uploads[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.uploads, id)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: time.Minute,
		},
		Upload: config.UploadConfig{
			MaxFileSize:  1 << 20,
			HistoryLimit: 50,
		},
		Catalog: config.CatalogConfig{Locale: "en-US", Currency: "USD"},
		Rate:    config.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *fakeStore) {
	t.Helper()

	formatter, err := currency.NewFormatter(cfg.Catalog.Locale, cfg.Catalog.Currency)
	if err != nil {
		t.Fatal(err)
	}

	st := newFakeStore()
	return NewServer(cfg, st, catalog.NewParser(catalog.DefaultLayout()), formatter), st
}

const testDocument = "ProductLineDescription,Family,Parent,SKU,Description,Unit,Standard,X,Floor,Give,GSA,X,X,Weight\n" +
	"Hardware,Fasteners,Acme,A1,Hex bolt,EA,$10.00,,8.00,7.00,9.50,,,0.25\n" +
	"Hardware,Fasteners,Acme,A2,Hex nut,EA,$2.00,,1.50,1.25,1.90,,,0.05\n"

// multipartBody builds a multipart form with a single "file" part.
func multipartBody(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	return &buf, mw.FormDataContentType()
}

func uploadDocument(t *testing.T, srv *Server, document string) uploadResponse {
	t.Helper()

	body, contentType := multipartBody(t, "prices.csv", document)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

// ----------------------------------------------------------------------------
// Upload Tests
// ----------------------------------------------------------------------------

func TestHandleUpload(t *testing.T) {
	srv, st := newTestServer(t, testConfig())

	resp := uploadDocument(t, srv, testDocument)

	if resp.Upload.FileName != "prices.csv" {
		t.Errorf("FileName = %q, want prices.csv", resp.Upload.FileName)
	}
	if resp.Upload.GroupCount != 1 {
		t.Errorf("GroupCount = %d, want 1", resp.Upload.GroupCount)
	}
	if resp.Upload.Stats.Variants != 2 {
		t.Errorf("Stats.Variants = %d, want 2", resp.Upload.Stats.Variants)
	}

	if len(resp.Catalog.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(resp.Catalog.Groups))
	}
	group := resp.Catalog.Groups[0]
	if group.ParentName != "Acme" {
		t.Errorf("ParentName = %q, want Acme", group.ParentName)
	}
	v := group.Variants[0]
	if v.StandardPrice != 10 {
		t.Errorf("StandardPrice = %v, want 10", v.StandardPrice)
	}
	if !strings.Contains(v.Display.StandardPrice, "$") {
		t.Errorf("Display.StandardPrice = %q, want a dollar symbol", v.Display.StandardPrice)
	}

	// The raw document must be persisted for later re-parsing.
	stored, err := st.Get(context.Background(), resp.Upload.ID)
	if err != nil {
		t.Fatalf("stored upload missing: %v", err)
	}
	if stored.Document == "" {
		t.Error("stored document is empty")
	}
}

func TestHandleUploadNoFile(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUploadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	srv, _ := newTestServer(t, cfg)

	body, contentType := multipartBody(t, "big.csv", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// ----------------------------------------------------------------------------
// History / Catalog Tests
// ----------------------------------------------------------------------------

func TestHandleListUploads(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	uploadDocument(t, srv, testDocument)
	uploadDocument(t, srv, testDocument)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Uploads []store.Upload `json:"uploads"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Uploads) != 2 {
		t.Errorf("got %d uploads, want 2", len(resp.Uploads))
	}
}

func TestHandleListUploadsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/uploads?limit=zero", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCatalogRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	resp := uploadDocument(t, srv, testDocument)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads/"+resp.Upload.ID.String()+"/catalog", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload catalogPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", payload.Currency)
	}
	// Re-parsing the stored document must reproduce the upload-time result.
	if len(payload.Groups) != len(resp.Catalog.Groups) {
		t.Errorf("group counts differ: %d vs %d", len(payload.Groups), len(resp.Catalog.Groups))
	}
}

func TestHandleUploadNotFound(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	tests := []struct {
		name string
		path string
		want int
	}{
		{
			name: "unknown id",
			path: "/api/uploads/" + uuid.NewString(),
			want: http.StatusNotFound,
		},
		{
			name: "malformed id",
			path: "/api/uploads/not-a-uuid",
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleDeleteUpload(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	resp := uploadDocument(t, srv, testDocument)

	req := httptest.NewRequest(http.MethodDelete, "/api/uploads/"+resp.Upload.ID.String(), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}

	// Second delete hits nothing.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/uploads/"+resp.Upload.ID.String(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", rec.Code)
	}
}

// ----------------------------------------------------------------------------
// Export Tests
// ----------------------------------------------------------------------------

func TestHandleExportCSV(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	resp := uploadDocument(t, srv, testDocument)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads/"+resp.Upload.ID.String()+"/export?format=csv", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "Parent,Family,") {
		t.Errorf("export missing header row: %q", body)
	}
	if !strings.Contains(body, "Acme,Fasteners,Hardware,A1,Hex bolt,EA,10,8,7,9.5,0.25") {
		t.Errorf("export missing normalized variant row: %q", body)
	}
}

func TestHandleExportXLSX(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	resp := uploadDocument(t, srv, testDocument)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads/"+resp.Upload.ID.String()+"/export?format=xlsx", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// XLSX files are zip archives; check the magic bytes.
	if body := rec.Body.Bytes(); len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
		t.Error("xlsx export is not a zip archive")
	}
}

func TestHandleExportBadFormat(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	resp := uploadDocument(t, srv, testDocument)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads/"+resp.Upload.ID.String()+"/export?format=pdf", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// ----------------------------------------------------------------------------
// Auth Tests
// ----------------------------------------------------------------------------

func TestAPIKeyAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"good-key"}
	srv, _ := newTestServer(t, cfg)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{
			name: "missing key",
			key:  "",
			want: http.StatusUnauthorized,
		},
		{
			name: "wrong key",
			key:  "bad-key",
			want: http.StatusForbidden,
		},
		{
			name: "valid key",
			key:  "good-key",
			want: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

// The index page is outside the API group and needs no key.
func TestIndexServedWithoutAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"good-key"}
	srv, _ := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Pricebook") {
		t.Error("index page missing expected content")
	}
}
