package http

import (
	"fmt"
	"net/http"

	"rodger/internal/core"
	"rodger/internal/log"
)

type commandRequest struct {
	Text string `json:"text"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleRecord files the transaction described by a free-form sentence.
// Report requests answer 200 with the report flag set.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readCommand(w, r)
	if !ok {
		return
	}
	out, err := s.svc.Record(r.Context(), text)
	if err != nil {
		writeError(w, r, log.OpRecord, err)
		return
	}
	if out.Report {
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleParse shows how a sentence would be interpreted.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readCommand(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Preview(text))
}

func (s *Server) readCommand(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req commandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpParse, err)
		return "", false
	}
	text := sanitizeInput(req.Text)
	if text == "" {
		writeError(w, r, log.OpParse, fmt.Errorf("%w: text is required", core.ErrValidation))
		return "", false
	}
	return text, true
}
