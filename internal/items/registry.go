// Package items maintains the catalog of item names seen in the ledger.
package items

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"rodger/internal/core"
	"rodger/internal/log"
	"rodger/internal/storage"
)

// DefaultKey is the document key the registry is stored under.
const DefaultKey = "rodger_items"

// LedgerReader is the read side of the ledger used to bootstrap the registry.
type LedgerReader interface {
	PartitionKeys() []string
	Partition(key string) []core.Transaction
}

// ItemMarker rewrites ledger references to a removed item.
type ItemMarker interface {
	MarkItemDeleted(ctx context.Context, name string) (int, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for first-seen dates.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLocation sets the time zone first-seen dates are computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) { r.loc = loc }
}

// WithLogger sets the logger for load warnings and item changes.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry is the ordered, case-insensitively unique list of known items.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	backend storage.Backend
	key     string
	now     func() time.Time
	loc     *time.Location
	logger  *log.Logger
	items   []core.Item
}

// Open loads the registry. Documents in the legacy form, a plain array of
// names, are converted to dated entries and written back at once. A corrupt
// document yields an empty registry.
func Open(ctx context.Context, backend storage.Backend, key string, opts ...Option) (*Registry, error) {
	if key == "" {
		key = DefaultKey
	}
	r := &Registry{
		backend: backend,
		key:     key,
		now:     time.Now,
		loc:     time.Local,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent(log.ComponentItems)

	data, err := backend.Load(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("load items: %w", err)
	}

	loaded, migrated, err := decode(data, r.today())
	if err != nil {
		r.logger.WarnContext(ctx, "Item registry is corrupt, starting empty",
			log.FieldKey, key, log.FieldError, err)
		return r, nil
	}
	if migrated {
		if err := r.commit(ctx, loaded); err != nil {
			return nil, fmt.Errorf("persist migrated items: %w", err)
		}
		r.logger.InfoContext(ctx, "Migrated legacy item registry", "items", len(loaded))
		return r, nil
	}
	r.items = loaded
	return r, nil
}

// decode accepts both the current [{name,date}] form and the legacy
// ["name", ...] form. migrated reports whether any legacy entry was found.
// Legacy names are normalized; blanks, the placeholder and case-insensitive
// duplicates are dropped.
func decode(data []byte, today string) (out []core.Item, migrated bool, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}
	out = make([]core.Item, 0, len(raw))
	for _, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) > 0 && elem[0] == '"' {
			var name string
			if err := json.Unmarshal(elem, &name); err != nil {
				return nil, false, err
			}
			migrated = true
			name = Normalize(name)
			if name == "" || name == core.NoItem || containsFold(out, name) {
				continue
			}
			out = append(out, core.Item{Name: name, Date: today})
			continue
		}
		var it core.Item
		if err := json.Unmarshal(elem, &it); err != nil {
			return nil, false, err
		}
		if it.Name != "" {
			out = append(out, it)
		}
	}
	return out, migrated, nil
}

func containsFold(list []core.Item, name string) bool {
	for _, it := range list {
		if strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

// Normalize trims raw, collapses inner whitespace and title-cases every word.
func Normalize(raw string) string {
	words := strings.Fields(raw)
	caser := cases.Title(language.Und)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// AddItem registers raw under its normalized name. It reports false when the
// name is empty, the placeholder, or already present in any letter case.
func (r *Registry) AddItem(ctx context.Context, raw string) (bool, error) {
	name := Normalize(raw)
	if name == "" || name == core.NoItem {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexFold(name) >= 0 {
		return false, nil
	}
	next := append(r.snapshot(), core.Item{Name: name, Date: r.today()})
	if err := r.commit(ctx, next); err != nil {
		return false, err
	}
	r.logger.InfoContext(ctx, "Item added", log.FieldItem, name)
	return true, nil
}

// Search returns the items whose name contains query, ignoring case, in
// registry order. An empty query matches nothing.
func (r *Registry) Search(query string) []core.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Item
	for _, it := range r.items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}

// Items returns the whole registry in order.
func (r *Registry) Items() []core.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// PopulateFromLedger seeds an empty registry with every distinct item name
// found in the ledger, dated by the first partition it appears in and
// inserted in alphabetical order. Partitions are walked chronologically;
// keys that are not dates come last in lexical order. It does nothing when
// the registry already has entries and returns the number of items added.
func (r *Registry) PopulateFromLedger(ctx context.Context, ledger LedgerReader) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) > 0 {
		return 0, nil
	}

	seen := make(map[string]bool)
	var found []core.Item
	for _, key := range chronological(ledger.PartitionKeys()) {
		for _, tx := range ledger.Partition(key) {
			raw := strings.TrimSpace(tx.ItemName)
			if raw == "" || raw == core.NoItem || core.IsDeletedItem(raw) {
				continue
			}
			name := Normalize(raw)
			fold := strings.ToLower(name)
			if seen[fold] {
				continue
			}
			seen[fold] = true
			found = append(found, core.Item{Name: name, Date: key})
		}
	}
	if len(found) == 0 {
		return 0, nil
	}

	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(found, func(i, j int) bool {
		return c.CompareString(found[i].Name, found[j].Name) < 0
	})

	if err := r.commit(ctx, found); err != nil {
		return 0, err
	}
	r.logger.InfoContext(ctx, "Item registry populated from ledger", "items", len(found))
	return len(found), nil
}

// DeleteItem removes the entry named exactly name, then marks every ledger
// record carrying that item name as deleted. It reports false when no such
// entry exists.
func (r *Registry) DeleteItem(ctx context.Context, name string, ledger ItemMarker) (bool, error) {
	r.mu.Lock()
	idx := -1
	for i, it := range r.items {
		if it.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return false, nil
	}
	next := r.snapshot()
	next = append(next[:idx], next[idx+1:]...)
	err := r.commit(ctx, next)
	r.mu.Unlock()
	if err != nil {
		return false, err
	}

	n, err := ledger.MarkItemDeleted(ctx, name)
	if err != nil {
		return true, fmt.Errorf("mark ledger references to %q: %w", name, err)
	}
	r.logger.InfoContext(ctx, "Item deleted", log.FieldItem, name, "ledger_records", n)
	return true, nil
}

func (r *Registry) indexFold(name string) int {
	for i, it := range r.items {
		if strings.EqualFold(it.Name, name) {
			return i
		}
	}
	return -1
}

func (r *Registry) snapshot() []core.Item {
	return append([]core.Item(nil), r.items...)
}

func (r *Registry) today() string {
	return core.PartitionKey(r.now().In(r.loc))
}

func (r *Registry) commit(ctx context.Context, next []core.Item) error {
	if next == nil {
		next = []core.Item{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	if err := r.backend.Save(ctx, r.key, data); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	r.items = next
	return nil
}

// chronological orders DD-MM-YYYY keys by date.
func chronological(keys []string) []string {
	type dated struct {
		key string
		t   time.Time
		ok  bool
	}
	ds := make([]dated, len(keys))
	for i, k := range keys {
		t, err := core.ParsePartitionKey(k)
		ds[i] = dated{key: k, t: t, ok: err == nil}
	}
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		switch {
		case a.ok && b.ok:
			return a.t.Before(b.t)
		case a.ok != b.ok:
			return a.ok
		default:
			return a.key < b.key
		}
	})
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.key
	}
	return out
}
