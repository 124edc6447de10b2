package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Sternrassler/catalog-feeder/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type handler struct {
	sessions Sessions
	logger   zerolog.Logger
}

type createRequest struct {
	Slots map[string]string `json:"slots"`
	Loop  bool              `json:"loop"`
}

type createResponse struct {
	Session string `json:"session"`
	Total   int    `json:"total"`
}

type loopRequest struct {
	Loop *bool `json:"loop"`
}

// decode reads a JSON body. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return
	}

	id, result, err := h.sessions.Create(r.Context(), req.Slots, req.Loop)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{Session: id, Total: result.Total})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sessions.Get(r.Context(), sessionID(r)))
}

func (h *handler) next(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sessions.Next(r.Context(), sessionID(r)))
}

func (h *handler) previous(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.sessions.Previous(r.Context(), sessionID(r)))
}

func (h *handler) setLoop(w http.ResponseWriter, r *http.Request) {
	var req loopRequest
	if err := decode(w, r, &req); err != nil || req.Loop == nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_JSON", `body must be {"loop": true|false}`)
		return
	}
	h.respond(w, r)(h.sessions.SetLoop(r.Context(), sessionID(r), *req.Loop))
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), sessionID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respond writes the state returned by a session operation.
func (h *handler) respond(w http.ResponseWriter, r *http.Request) func(*session.State, error) {
	return func(state *session.State, err error) {
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().
			Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("session", sessionID(r)).
			Msg("Session operation failed")
	}
	writeError(w, r, status, code, err.Error())
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
