package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/apperr"
	"github.com/ayusman/isharavaani/internal/assist"
)

// User-facing failure messages.
const (
	msgInstructionsFailed = "Error fetching sign instructions."
	msgTranslationFailed  = "Error translating text."
)

// AssistantHandler serves reverse translation and Hindi translation.
type AssistantHandler struct {
	assistant assist.Assistant
	log       logrus.FieldLogger
}

// NewAssistantHandler creates an AssistantHandler.
func NewAssistantHandler(a assist.Assistant, log logrus.FieldLogger) *AssistantHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AssistantHandler{assistant: a, log: log}
}

type textRequest struct {
	Text string `json:"text"`
}

type instructionsResponse struct {
	Text         string `json:"text"`
	Instructions string `json:"instructions"`
}

type translationResponse struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// Instructions handles POST /api/instructions.
func (h *AssistantHandler) Instructions(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.assistant.Instructions(r.Context(), req.Text)
	if err != nil {
		h.fail(w, err, msgInstructionsFailed)
		return
	}

	writeJSON(w, http.StatusOK, instructionsResponse{Text: req.Text, Instructions: out})
}

// Translate handles POST /api/translations.
func (h *AssistantHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := assist.ValidatePhrase(req.Text); err != nil {
		h.fail(w, err, msgTranslationFailed)
		return
	}

	out, err := h.assistant.Translate(r.Context(), req.Text)
	if err != nil {
		h.fail(w, err, msgTranslationFailed)
		return
	}

	writeJSON(w, http.StatusOK, translationResponse{Text: req.Text, Translation: out})
}

// fail reports validation errors as they are and hides upstream detail
// behind msg.
func (h *AssistantHandler) fail(w http.ResponseWriter, err error, msg string) {
	if apperr.IsCode(err, apperr.CodeInvalidArgument) {
		writeAppError(w, err, "Invalid request")
		return
	}
	h.log.WithError(err).Warn("assistant request failed")
	writeError(w, apperr.HTTPStatus(err), msg)
}
