package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/isharavaani/internal/store"
)

// ModulesHandler serves the learning catalogue and dashboard.
type ModulesHandler struct {
	store *store.Store
}

// NewModulesHandler creates a ModulesHandler.
func NewModulesHandler(s *store.Store) *ModulesHandler {
	return &ModulesHandler{store: s}
}

type listModulesResponse struct {
	Modules []*store.Module `json:"modules"`
}

type progressRequest struct {
	Progress *int `json:"progress"`
}

type dashboardResponse struct {
	*store.Summary
	Favorites int `json:"favorites"`
}

// List handles GET /api/modules.
func (h *ModulesHandler) List(w http.ResponseWriter, r *http.Request) {
	modules, err := h.store.Modules().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list modules")
		return
	}
	if modules == nil {
		modules = []*store.Module{}
	}
	writeJSON(w, http.StatusOK, listModulesResponse{Modules: modules})
}

// Get handles GET /api/modules/{id}.
func (h *ModulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.Modules().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Module not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get module")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateProgress handles PUT /api/modules/{id}/progress.
func (h *ModulesHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil || req.Progress == nil {
		writeError(w, http.StatusBadRequest, "progress is required")
		return
	}

	m, err := h.store.Modules().UpdateProgress(chi.URLParam(r, "id"), *req.Progress)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, m)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Module not found")
	case errors.Is(err, store.ErrInvalidProgress):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrModuleLocked):
		writeError(w, http.StatusConflict, "Module is locked")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to update progress")
	}
}

// Unlock handles POST /api/modules/{id}/unlock.
func (h *ModulesHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Modules().Unlock(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Module not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to unlock module")
		return
	}

	m, err := h.store.Modules().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get module")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Dashboard handles GET /api/dashboard.
func (h *ModulesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := h.store.Modules().Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	favorites, err := h.store.Favorites().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Summary: sum, Favorites: favorites})
}
