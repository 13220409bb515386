package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"rodger/internal/core"
	"rodger/internal/interpreter"
	"rodger/internal/items"
	"rodger/internal/ledger"
	"rodger/internal/services"
	"rodger/internal/storage/memory"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 5, 14, 7, 0, 0, time.UTC) }

func newTestServer(t *testing.T, writeLimit int) *Server {
	t.Helper()
	ctx := context.Background()
	backend := memory.New()
	book, err := ledger.Open(ctx, backend, ledger.DefaultKey, nil)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	registry, err := items.Open(ctx, backend, items.DefaultKey, items.WithClock(fixedNow), items.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("open items: %v", err)
	}
	parser := interpreter.NewDefault(interpreter.WithClock(fixedNow), interpreter.WithLocation(time.UTC))
	svc := services.NewLedgerService(parser, book, registry, services.WithClock(fixedNow, time.UTC))

	srv := NewServer(":0", svc, Options{WriteLimit: writeLimit})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, 0)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
		if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
			t.Errorf("%s: missing request id", path)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, 0)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Fatalf("request id %q, want %q", got, id)
	}
}

func TestRecordCommand(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := do(t, srv, http.MethodPost, "/api/commands", `{"text":"Ramesh se 500 mile"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	out := decode[services.Outcome](t, rec)
	if out.Transaction == nil || out.Transaction.Paid != 500 || out.Transaction.Serial != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	rec = do(t, srv, http.MethodPost, "/api/commands", `{"text":"purana hisaab dikhao"}`)
	if rec.Code != http.StatusOK || !decode[services.Outcome](t, rec).Report {
		t.Fatalf("expected report outcome, got %d %s", rec.Code, rec.Body)
	}

	tests := []struct {
		name string
		body string
	}{
		{"missing customer", `{"text":"500"}`},
		{"blank text", `{"text":"   "}`},
		{"empty body", ``},
		{"unknown field", `{"txt":"Ramesh se 500 mile"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/commands", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status %d, want 422: %s", rec.Code, rec.Body)
			}
			if decode[errorResponse](t, rec).Error == "" {
				t.Fatal("error body missing")
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	srv := newTestServer(t, 0)
	rec := do(t, srv, http.MethodPost, "/api/parse", `{"text":"Ramesh se 500 mile"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	in := decode[core.Intent](t, rec)
	if in.CustomerName != "Ramesh" || in.Type != core.Income || in.Amount != 500 {
		t.Fatalf("unexpected intent %+v", in)
	}
	// Preview must not record.
	rec = do(t, srv, http.MethodGet, "/api/ledger/today", "")
	if got := decode[partitionResponse](t, rec); len(got.Transactions) != 0 {
		t.Fatalf("parse recorded a transaction: %+v", got)
	}
}

func TestLedgerEndpoints(t *testing.T) {
	srv := newTestServer(t, 0)
	for _, text := range []string{"A se 100 mile", "B ko 50 ka saman udhar", "C se 25 mile"} {
		if rec := do(t, srv, http.MethodPost, "/api/commands", `{"text":"`+text+`"}`); rec.Code != http.StatusCreated {
			t.Fatalf("seed %q: %d %s", text, rec.Code, rec.Body)
		}
	}

	rec := do(t, srv, http.MethodGet, "/api/ledger/today", "")
	day := decode[partitionResponse](t, rec)
	if day.Date != "05-03-2026" || len(day.Transactions) != 3 {
		t.Fatalf("unexpected partition %+v", day)
	}

	rec = do(t, srv, http.MethodGet, "/api/ledger?from=2026-03-01&to=2026-03-31&q=a", "")
	res := decode[services.RangeResult](t, rec)
	if len(res.Entries) != 1 || res.Totals.Paid.String() != "100" {
		t.Fatalf("unexpected range %+v", res)
	}

	rec = do(t, srv, http.MethodPatch, "/api/ledger/05-03-2026/1", `{"paid": 20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status %d: %s", rec.Code, rec.Body)
	}
	if tx := decode[core.Transaction](t, rec); tx.Paid != 20 || tx.Due != 50 {
		t.Fatalf("unexpected patched record %+v", tx)
	}

	rec = do(t, srv, http.MethodDelete, "/api/ledger/05-03-2026/0", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}
	day = decode[partitionResponse](t, do(t, srv, http.MethodGet, "/api/ledger/05-03-2026", ""))
	if len(day.Transactions) != 2 || day.Transactions[0].CustomerName != "B" || day.Transactions[0].Serial != 1 {
		t.Fatalf("unexpected partition after delete %+v", day)
	}

	errorCases := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodGet, "/api/ledger/2026-03-05", "", http.StatusUnprocessableEntity},
		{http.MethodGet, "/api/ledger?from=yesterday&to=2026-03-31", "", http.StatusUnprocessableEntity},
		{http.MethodPatch, "/api/ledger/05-03-2026/9", `{"paid": 1}`, http.StatusNotFound},
		{http.MethodPatch, "/api/ledger/05-03-2026/0", `{"paid": -1}`, http.StatusUnprocessableEntity},
		{http.MethodPatch, "/api/ledger/05-03-2026/0", `{}`, http.StatusUnprocessableEntity},
		{http.MethodPatch, "/api/ledger/05-03-2026/x", `{"paid": 1}`, http.StatusUnprocessableEntity},
		{http.MethodDelete, "/api/ledger/06-03-2026/0", "", http.StatusNotFound},
	}
	for _, tc := range errorCases {
		if rec := do(t, srv, tc.method, tc.target, tc.body); rec.Code != tc.want {
			t.Errorf("%s %s: status %d, want %d (%s)", tc.method, tc.target, rec.Code, tc.want, rec.Body)
		}
	}
}

func TestItemEndpoints(t *testing.T) {
	srv := newTestServer(t, 0)
	if rec := do(t, srv, http.MethodPost, "/api/commands", `{"text":"Ramesh 500 apple"}`); rec.Code != http.StatusCreated {
		t.Fatalf("seed: %d", rec.Code)
	}

	if rec := do(t, srv, http.MethodPost, "/api/items", `{"name":"basmati rice"}`); rec.Code != http.StatusCreated {
		t.Fatalf("add item: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, srv, http.MethodPost, "/api/items", `{"name":"APPLE"}`); rec.Code != http.StatusOK {
		t.Fatalf("duplicate item: %d", rec.Code)
	}

	all := decode[itemsResponse](t, do(t, srv, http.MethodGet, "/api/items", ""))
	if len(all.Items) != 2 || all.Items[0].Name != "Apple" {
		t.Fatalf("unexpected items %+v", all)
	}
	found := decode[itemsResponse](t, do(t, srv, http.MethodGet, "/api/items?q=RICE", ""))
	if len(found.Items) != 1 || found.Items[0].Name != "Basmati Rice" {
		t.Fatalf("unexpected search %+v", found)
	}

	if rec := do(t, srv, http.MethodDelete, "/api/items/Apple", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete item: %d %s", rec.Code, rec.Body)
	}
	day := decode[partitionResponse](t, do(t, srv, http.MethodGet, "/api/ledger/today", ""))
	if day.Transactions[0].ItemName != "[Deleted] Apple" {
		t.Fatalf("cascade missing: %+v", day.Transactions[0])
	}
	if rec := do(t, srv, http.MethodDelete, "/api/items/Apple", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/items/Basmati%20Rice", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete escaped name: %d %s", rec.Code, rec.Body)
	}

	rec := do(t, srv, http.MethodPost, "/api/items/populate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("populate: %d", rec.Code)
	}
	// Only a deleted item is referenced, so nothing is bootstrapped.
	if got := decode[map[string]int](t, rec); got["added"] != 0 {
		t.Fatalf("unexpected populate result %v", got)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodPost, "/api/parse", `{"text":"Ramesh se 500 mile"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec := do(t, srv, http.MethodPost, "/api/parse", `{"text":"Ramesh se 500 mile"}`)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	// Reads are not limited.
	if rec := do(t, srv, http.MethodGet, "/api/items", ""); rec.Code != http.StatusOK {
		t.Fatalf("read limited: %d", rec.Code)
	}
}

func TestDeleteItemWithReservedCharacters(t *testing.T) {
	srv := newTestServer(t, 0)
	cases := []struct {
		name   string
		target string
	}{
		{"50% Soap", "/api/items/50%25%20Soap"},
		{"1/2 Kg Dal", "/api/items/1%2F2%20Kg%20Dal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"name": tc.name})
			if rec := do(t, srv, http.MethodPost, "/api/items", string(body)); rec.Code != http.StatusCreated {
				t.Fatalf("add: %d %s", rec.Code, rec.Body)
			}
			if rec := do(t, srv, http.MethodDelete, tc.target, ""); rec.Code != http.StatusNoContent {
				t.Fatalf("delete: %d %s", rec.Code, rec.Body)
			}
		})
	}
	if all := decode[itemsResponse](t, do(t, srv, http.MethodGet, "/api/items", "")); len(all.Items) != 0 {
		t.Fatalf("items left behind: %+v", all.Items)
	}
}
