package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/isharavaani/internal/store"
)

// newTestStore creates a seeded Store backed by a temporary database file.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// newStoreRouter mounts the store-backed handlers the way the server does.
func newStoreRouter(s *store.Store) http.Handler {
	r := chi.NewRouter()

	modules := NewModulesHandler(s)
	r.Get("/api/modules", modules.List)
	r.Get("/api/modules/{id}", modules.Get)
	r.Put("/api/modules/{id}/progress", modules.UpdateProgress)
	r.Post("/api/modules/{id}/unlock", modules.Unlock)
	r.Get("/api/dashboard", modules.Dashboard)

	favorites := NewFavoritesHandler(s)
	r.Get("/api/favorites", favorites.List)
	r.Get("/api/favorites/{id}", favorites.Get)
	r.Post("/api/favorites", favorites.Create)
	r.Delete("/api/favorites/{id}", favorites.Delete)

	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"text":"hello"}`, false},
		{"empty body", ``, true},
		{"malformed", `{"text":`, true},
		{"unknown field", `{"text":"hello","extra":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			var dst textRequest
			err := decodeJSON(req, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && dst.Text != "hello" {
				t.Errorf("expected text 'hello', got %q", dst.Text)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusTeapot, "short and stout")

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Error != "short and stout" {
		t.Errorf("expected error message, got %q", resp.Error)
	}
}
