package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/isharavaani/internal/store"
)

// FavoritesHandler serves saved translations.
type FavoritesHandler struct {
	store *store.Store
}

// NewFavoritesHandler creates a FavoritesHandler.
func NewFavoritesHandler(s *store.Store) *FavoritesHandler {
	return &FavoritesHandler{store: s}
}

type createFavoriteRequest struct {
	Type       string `json:"type"`
	Source     string `json:"source"`
	Translated string `json:"translated"`
	ModuleID   string `json:"moduleId"`
}

type listFavoritesResponse struct {
	Favorites []*store.Favorite `json:"favorites"`
}

// List handles GET /api/favorites.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.store.Favorites().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list favorites")
		return
	}
	if favorites == nil {
		favorites = []*store.Favorite{}
	}
	writeJSON(w, http.StatusOK, listFavoritesResponse{Favorites: favorites})
}

// Get handles GET /api/favorites/{id}.
func (h *FavoritesHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.store.Favorites().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Favorite not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get favorite")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Create handles POST /api/favorites.
func (h *FavoritesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind := store.FavoriteKind(req.Type)
	if req.Type == "" {
		kind = store.FavoriteTextToSign
	}
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "type must be sign-to-text or text-to-sign")
		return
	}

	f := &store.Favorite{
		Kind:       kind,
		Source:     strings.TrimSpace(req.Source),
		Translated: strings.TrimSpace(req.Translated),
		ModuleID:   req.ModuleID,
	}
	if f.Source == "" || f.Translated == "" {
		writeError(w, http.StatusBadRequest, "source and translated are required")
		return
	}

	if f.ModuleID != "" {
		if _, err := h.store.Modules().GetByID(f.ModuleID); err != nil {
			writeError(w, http.StatusBadRequest, "Unknown module")
			return
		}
	}

	if err := h.store.Favorites().Create(f); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save favorite")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// Delete handles DELETE /api/favorites/{id}.
func (h *FavoritesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Favorites().Delete(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Favorite not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
