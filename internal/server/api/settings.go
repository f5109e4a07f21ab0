package api

import (
	"net/http"

	"github.com/ayusman/isharavaani/internal/assist"
	"github.com/ayusman/isharavaani/internal/store"
)

// SettingsHandler serves user preferences.
type SettingsHandler struct {
	store           *store.Store
	defaultLanguage assist.Language
}

// NewSettingsHandler creates a SettingsHandler. def is reported until the
// user picks a language.
func NewSettingsHandler(s *store.Store, def assist.Language) *SettingsHandler {
	if !def.Valid() {
		def = assist.English
	}
	return &SettingsHandler{store: s, defaultLanguage: def}
}

type settingsResponse struct {
	Language assist.Language `json:"language"`
}

type updateSettingsRequest struct {
	Language string `json:"language"`
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	lang, err := h.store.Settings().GetOr(store.SettingLanguage, string(h.defaultLanguage))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Language: assist.Language(lang)})
}

// Update handles PUT /api/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	lang, err := assist.ParseLanguage(req.Language)
	if err != nil {
		writeAppError(w, err, "Invalid language")
		return
	}
	if err := h.store.Settings().Set(store.SettingLanguage, string(lang)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Language: lang})
}
