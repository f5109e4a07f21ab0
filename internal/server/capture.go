package server

import (
	"errors"
	"net/http"

	"github.com/ayusman/isharavaani/internal/app"
	"github.com/ayusman/isharavaani/internal/session"
)

// captureHandler exposes the desktop session over HTTP.
type captureHandler struct {
	desktop Desktop
}

func (h *captureHandler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.desktop.Snapshot())
}

// command runs fn and answers with the resulting snapshot.
func (h *captureHandler) command(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			writeError(w, commandStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, h.desktop.Snapshot())
	}
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrNotRecording),
		errors.Is(err, app.ErrNothingToSpeak):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
