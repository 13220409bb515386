package http

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"rodger/internal/core"
	"rodger/internal/log"
)

type itemRequest struct {
	Name string `json:"name"`
}

type itemsResponse struct {
	Items []core.Item `json:"items"`
}

// handleListItems returns the whole registry, or the matches for ?q=.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	var list []core.Item
	if q := sanitizeInput(r.URL.Query().Get("q")); q != "" {
		list = s.svc.SearchItems(q)
	} else {
		list = s.svc.Items()
	}
	if list == nil {
		list = []core.Item{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: list})
}

// handleAddItem answers 201 when the item is new and 200 when it already
// existed or was rejected.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	added, err := s.svc.AddItem(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"added": added})
}

func (s *Server) handlePopulateItems(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.PopulateItems(r.Context())
	if err != nil {
		writeError(w, r, log.OpPopulate, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": n})
}

// handleDeleteItem removes an item and marks its ledger references.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	name, err := itemNameParam(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	ok, err := s.svc.DeleteItem(r.Context(), name)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("item %q not found", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// itemNameParam returns the decoded {name} segment. chi routes on RawPath
// when the request carries one, leaving the segment escaped.
func itemNameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	unescaped, err := url.PathUnescape(name)
	if err != nil {
		return "", fmt.Errorf("%w: bad item name", core.ErrValidation)
	}
	return unescaped, nil
}
