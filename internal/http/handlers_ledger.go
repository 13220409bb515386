package http

import (
	"net/http"

	"rodger/internal/core"
	"rodger/internal/log"
	"rodger/internal/services"
)

type partitionResponse struct {
	Date         string             `json:"date"`
	Transactions []core.Transaction `json:"transactions"`
}

// handleRange serves GET /api/ledger?from=&to=&q=.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	from, to, customer, err := rangeParams(r, s.svc.Today())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	res, err := s.svc.Range(from, to, customer)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePartition(w http.ResponseWriter, r *http.Request) {
	key, err := partitionParam(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	if key == services.TodayKey {
		key = s.svc.Today()
	}
	rows := s.svc.Partition(key)
	if rows == nil {
		rows = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, partitionResponse{Date: key, Transactions: rows})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key, err := partitionParam(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	pos, err := positionParam(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var patch core.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	tx, err := s.svc.UpdateTransaction(r.Context(), key, pos, patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := partitionParam(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	pos, err := positionParam(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.DeleteTransaction(r.Context(), key, pos); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
