package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/alschell/wealthhorizonai/internal/marketdata"
)

const msgpackContentType = "application/msgpack"

// QueryResponse is the body of a successful query.
type QueryResponse struct {
	Result any `json:"result" msgpack:"result"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail" msgpack:"detail"`
}

// requireAPIKey rejects requests whose key does not match the configured
// one. An unset key rejects everything.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := s.cfg.APIKey
		got := r.Header.Get(APIKeyHeader)
		if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			s.writeJSON(w, http.StatusForbidden, ErrorResponse{Detail: "Invalid API Key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleQuery handles GET /query?text=...
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("text") {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "Missing query parameter: text"})
		return
	}

	res, err := s.coordinator.ProcessQuery(r.Context(), q.Get("text"))
	w.Header().Set("X-Query-Route", string(res.Route))
	if err != nil {
		status := statusFor(err)
		s.log.Error().Err(err).Str("route", string(res.Route)).Int("status", status).Msg("Query failed")
		s.write(w, r, status, ErrorResponse{Detail: err.Error()})
		return
	}

	s.write(w, r, http.StatusOK, QueryResponse{Result: res.Value})
}

// statusFor maps error kinds to HTTP status codes. Unknown capabilities and
// operations are wiring faults and stay 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, marketdata.ErrDataUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleHierarchy handles GET /api/hierarchy
func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, http.StatusOK, s.coordinator.State().Hierarchy)
}

// write encodes as msgpack when the client asks for it, JSON otherwise.
func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if !strings.Contains(r.Header.Get("Accept"), msgpackContentType) {
		s.writeJSON(w, status, data)
		return
	}

	body, err := msgpack.Marshal(data)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode msgpack response")
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "encoding failed"})
		return
	}
	w.Header().Set("Content-Type", msgpackContentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.log.Error().Err(err).Msg("Failed to write msgpack response")
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
