// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_enricher/internal/app"
	"hotel_enricher/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const maxUUIDLen = 64

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels/{uuid}/attributes", h.getAttributes)
	s.mux.Get("/v1/hotels/{uuid}/faqs", h.listFAQs)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func hotelUUID(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := chi.URLParam(r, "uuid")
	if u == "" || len(u) > maxUUIDLen {
		writeProblem(w, http.StatusBadRequest, "Invalid UUID", "uuid must be 1 to 64 characters")
		return "", false
	}
	return u, true
}

func writeLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Msg(what + " lookup failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// writeJSON serves v with a weak ETag and honours If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) getAttributes(w http.ResponseWriter, r *http.Request) {
	u, ok := hotelUUID(w, r)
	if !ok {
		return
	}
	v, err := h.Q.GetAttributes(r.Context(), u)
	if err != nil {
		writeLookupError(w, err, "attributes")
		return
	}
	writeJSON(w, r, v)
}

func (h *Handlers) listFAQs(w http.ResponseWriter, r *http.Request) {
	u, ok := hotelUUID(w, r)
	if !ok {
		return
	}
	qas, err := h.Q.ListFAQs(r.Context(), u)
	if err != nil {
		writeLookupError(w, err, "faqs")
		return
	}
	writeJSON(w, r, map[string]any{"uuid": u, "faqs": qas})
}
