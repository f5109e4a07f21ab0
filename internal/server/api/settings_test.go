package api

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/isharavaani/internal/assist"
)

func TestSettingsHandler(t *testing.T) {
	h := NewSettingsHandler(newTestStore(t), assist.English)
	r := chi.NewRouter()
	r.Get("/api/settings", h.Get)
	r.Put("/api/settings", h.Update)

	t.Run("returns the default language", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodGet, "/api/settings", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp settingsResponse
		decodeBody(t, rec, &resp)
		if resp.Language != assist.English {
			t.Errorf("expected English, got %q", resp.Language)
		}
	})

	t.Run("saves a language", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPut, "/api/settings", `{"language":"hi"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}

		rec = doRequest(t, r, http.MethodGet, "/api/settings", "")
		var resp settingsResponse
		decodeBody(t, rec, &resp)
		if resp.Language != assist.Hindi {
			t.Errorf("expected Hindi, got %q", resp.Language)
		}
	})

	t.Run("rejects unsupported languages", func(t *testing.T) {
		rec := doRequest(t, r, http.MethodPut, "/api/settings", `{"language":"Klingon"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})
}
