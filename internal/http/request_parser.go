package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rodger/internal/core"
	"rodger/internal/services"
)

const maxBodyBytes = 64 << 10

// decodeJSON reads one JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", core.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", core.ErrValidation, err)
	}
	return nil
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// partitionParam returns the {date} URL parameter, which must be
// services.TodayKey or a DD-MM-YYYY date.
func partitionParam(r *http.Request) (string, error) {
	key := chi.URLParam(r, "date")
	if key == services.TodayKey {
		return key, nil
	}
	if _, err := core.ParsePartitionKey(key); err != nil {
		return "", fmt.Errorf("%w: date must be DD-MM-YYYY or %q", core.ErrValidation, services.TodayKey)
	}
	return key, nil
}

// positionParam returns the zero-based {position} URL parameter.
func positionParam(r *http.Request) (int, error) {
	pos, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || pos < 0 {
		return 0, fmt.Errorf("%w: position must be a non-negative integer", core.ErrValidation)
	}
	return pos, nil
}

// rangeParams reads from/to (YYYY-MM-DD) and q. A missing bound defaults to
// today.
func rangeParams(r *http.Request, today string) (from, to, customer string, err error) {
	q := r.URL.Query()
	from = strings.TrimSpace(q.Get("from"))
	to = strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		d, perr := core.ParsePartitionKey(today)
		if perr != nil {
			return "", "", "", perr
		}
		iso := d.Format(core.ISOLayout)
		if from == "" {
			from = iso
		}
		if to == "" {
			to = iso
		}
	}
	return from, to, sanitizeInput(q.Get("q")), nil
}
