package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/krisvansteen/Dashboards/errors"
	"github.com/krisvansteen/Dashboards/relay"
)

// handleSnapshot serves the full board state.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, _ Role) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, s.cache.Snapshot())
}

// handleDelete accepts a delete intent and relays it to the command channel.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, _ Role) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := s.readBody(w, r)
	if err != nil {
		return
	}

	var intent relay.DeleteIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ack, err := s.deleter.SubmitDelete(r.Context(), intent)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		s.logger.Warn("delete rejected", "status", status, "error", err)
		s.writeError(w, status, sanitizeError(err))
		return
	}

	s.writeJSON(w, http.StatusOK, ack)
}

// handleReset clears the board. Admin only.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, role Role) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if role != RoleAdmin {
		s.errorsTotal.Add(1)
		s.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	s.cache.Reset()
	s.logger.Info("board reset")
	w.WriteHeader(http.StatusNoContent)
}

// handleHealthz aggregates component health.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ Role) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type healthResponse struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components,omitempty"`
		Time       time.Time      `json:"time"`
	}

	resp := healthResponse{Status: "ok", Time: time.Now()}
	status := http.StatusOK

	if s.health != nil {
		resp.Components = make(map[string]any)
		for name, hs := range s.health.Health() {
			resp.Components[name] = hs
			if !hs.Healthy {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
	}

	s.writeJSON(w, status, resp)
}

// readBody reads the request body with the configured size cap, writing the
// error response itself on failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.cfg.MaxRequestSize
	if limit <= 0 {
		limit = 1 << 20
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, err
	}
	if int64(len(body)) > limit {
		s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, errors.ErrInvalidRequest
	}
	return body, nil
}

// mapErrorToHTTPStatus maps error classes to HTTP status codes. Transport
// failures surface as bad gateway because the broker is upstream of us.
func mapErrorToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if errors.IsInvalid(err) {
		return http.StatusBadRequest
	}
	if errors.IsTransient(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// sanitizeError returns a safe message for external clients. Internal
// details are logged, never exposed.
func sanitizeError(err error) string {
	if err == nil {
		return "internal server error"
	}
	if errors.IsInvalid(err) {
		if strings.Contains(err.Error(), "required") {
			return "missing required field"
		}
		return "invalid request"
	}
	if errors.IsTransient(err) {
		return "message broker unavailable"
	}
	return "internal server error"
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"error":  message,
		"status": status,
	}
	data, _ := json.Marshal(response)
	_, _ = w.Write(data)
}
