package api

import (
	"net/http"
	"testing"

	"github.com/ayusman/isharavaani/internal/store"
)

func TestFavoritesHandler(t *testing.T) {
	h := newStoreRouter(newTestStore(t))

	t.Run("starts empty", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/favorites", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if body := rec.Body.String(); body != "{\"favorites\":[]}\n" {
			t.Errorf("expected empty list, got %q", body)
		}
	})

	var created store.Favorite
	t.Run("creates a favorite", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/favorites",
			`{"type":"sign-to-text","source":"wave","translated":"Hello","moduleId":"everyday-greetings"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
		}

		decodeBody(t, rec, &created)
		if created.ID == "" {
			t.Error("expected an ID to be assigned")
		}
		if created.Kind != store.FavoriteSignToText {
			t.Errorf("expected kind sign-to-text, got %q", created.Kind)
		}
	})

	t.Run("defaults the type", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/favorites", `{"source":"Thank you","translated":"Flat hand from chin"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
		}

		var f store.Favorite
		decodeBody(t, rec, &f)
		if f.Kind != store.FavoriteTextToSign {
			t.Errorf("expected kind text-to-sign, got %q", f.Kind)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		bodies := []string{
			`{"type":"sign-to-text","source":"","translated":"Hello"}`,
			`{"type":"poem","source":"a","translated":"b"}`,
			`{"source":"a","translated":"b","moduleId":"nope"}`,
			`{"source":"a","translated":"b","colour":"red"}`,
		}
		for _, body := range bodies {
			rec := doRequest(t, h, http.MethodPost, "/api/favorites", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %s: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
			}
		}
	})

	t.Run("lists newest first", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/favorites", "")

		var resp listFavoritesResponse
		decodeBody(t, rec, &resp)
		if len(resp.Favorites) != 2 {
			t.Fatalf("expected 2 favorites, got %d", len(resp.Favorites))
		}
		if resp.Favorites[0].Source != "Thank you" {
			t.Errorf("expected newest first, got %q", resp.Favorites[0].Source)
		}
	})

	t.Run("gets a favorite", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/favorites/"+created.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var f store.Favorite
		decodeBody(t, rec, &f)
		if f.ID != created.ID || f.Translated != "Hello" || f.ModuleID != "everyday-greetings" {
			t.Errorf("unexpected favorite %+v", f)
		}

		rec = doRequest(t, h, http.MethodGet, "/api/favorites/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("deletes a favorite", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodDelete, "/api/favorites/"+created.ID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}

		rec = doRequest(t, h, http.MethodDelete, "/api/favorites/"+created.ID, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d on second delete, got %d", http.StatusNotFound, rec.Code)
		}
	})
}
