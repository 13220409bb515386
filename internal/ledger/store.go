// Package ledger keeps the day-partitioned transaction book.
//
// Partitions are keyed by DD-MM-YYYY. Inside a partition the record at
// position i always carries serial i+1; every mutation re-establishes this
// before the book is persisted.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"rodger/internal/core"
	"rodger/internal/log"
	"rodger/internal/storage"
)

// DefaultKey is the document key the book is stored under.
const DefaultKey = "rodger_daily_sheets"

type book map[string][]core.Transaction

// Store is safe for concurrent use within one process. Writers in other
// processes sharing the same backend are not detected.
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
	key     string
	logger  *log.Logger
	book    book
}

// Open loads the book stored under key. A missing or unreadable document
// yields an empty book; only backend failures are returned.
func Open(ctx context.Context, backend storage.Backend, key string, logger *log.Logger) (*Store, error) {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.Discard()
	}
	s := &Store{
		backend: backend,
		key:     key,
		logger:  logger.WithComponent(log.ComponentLedger),
		book:    book{},
	}

	data, err := backend.Load(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var loaded book
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.WarnContext(ctx, "Ledger document is corrupt, starting empty",
			log.FieldKey, key, log.FieldError, err)
		return s, nil
	}
	if loaded == nil {
		loaded = book{}
	}
	for k := range loaded {
		renumber(loaded[k])
	}
	s.book = loaded
	s.logger.InfoContext(ctx, "Ledger loaded", log.FieldKey, key, "partitions", len(loaded))
	return s, nil
}

// AddTransaction files a new record under the intent's display date.
func (s *Store) AddTransaction(ctx context.Context, in core.Intent) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	due, paid, expense := in.Type.Split(in.Amount)
	item := in.Item
	if item == "" {
		item = core.NoItem
	}
	tx := core.Transaction{
		CustomerName: in.CustomerName,
		ItemName:     item,
		Amount:       in.Amount,
		Date:         in.DisplayDate,
		Time:         in.Time,
		Due:          due,
		Paid:         paid,
		Expense:      expense,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.book.clone()
	tx.Serial = len(next[in.DisplayDate]) + 1
	next[in.DisplayDate] = append(next[in.DisplayDate], tx)

	if err := s.commit(ctx, next); err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction added",
		log.FieldPartition, in.DisplayDate,
		log.FieldSerial, tx.Serial,
		log.FieldCustomer, tx.CustomerName,
		log.FieldType, in.Type.String())
	return tx, nil
}

// Partition returns a copy of the records filed under key, or nil.
func (s *Store) Partition(key string) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.book[key]...)
}

// PartitionKeys returns every partition key in lexical order.
func (s *Store) PartitionKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.book))
	for k := range s.book {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range returns the records of every partition whose date lies within
// [startISO, endISO], ordered by date then serial. Partitions whose key is
// not a valid date are skipped.
func (s *Store) Range(startISO, endISO string) ([]core.Entry, error) {
	start, err := core.ParseISODate(startISO)
	if err != nil {
		return nil, err
	}
	end, err := core.ParseISODate(endISO)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type dated struct {
		key string
		day int64
	}
	var keys []dated
	for k := range s.book {
		d, err := core.ParsePartitionKey(k)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		keys = append(keys, dated{key: k, day: d.Unix()})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].day < keys[j].day })

	var out []core.Entry
	for _, k := range keys {
		for pos, tx := range s.book[k.key] {
			out = append(out, core.Entry{Transaction: tx, PartitionKey: k.key, Position: pos})
		}
	}
	return out, nil
}

// UpdateTransaction overwrites the fields set in patch on the record at
// position. Due, paid and expense are not reconciled with amount.
func (s *Store) UpdateTransaction(ctx context.Context, key string, position int, patch core.TransactionPatch) (core.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.book.has(key, position) {
		return core.Transaction{}, notFound(key, position)
	}
	next := s.book.clone()
	patch.Apply(&next[key][position])

	if err := s.commit(ctx, next); err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldPartition, key, log.FieldPosition, position)
	return next[key][position], nil
}

// DeleteTransaction removes the record at position and renumbers the rest of
// the partition. An emptied partition stays in the book.
func (s *Store) DeleteTransaction(ctx context.Context, key string, position int) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.book.has(key, position) {
		return core.Transaction{}, notFound(key, position)
	}
	next := s.book.clone()
	rows := next[key]
	removed := rows[position]
	rows = append(rows[:position], rows[position+1:]...)
	renumber(rows)
	next[key] = rows

	if err := s.commit(ctx, next); err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldPartition, key, log.FieldPosition, position, "remaining", len(rows))
	return removed, nil
}

// MarkItemDeleted prefixes every record whose item name equals name with
// the deleted marker and returns how many records changed. The book is
// persisted only when something changed.
func (s *Store) MarkItemDeleted(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.book.clone()
	changed := 0
	for _, rows := range next {
		for i := range rows {
			if rows[i].ItemName == name {
				rows[i].ItemName = core.DeletedPrefix + name
				changed++
			}
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Item references marked deleted",
		log.FieldItem, name, "records", changed)
	return changed, nil
}

// commit persists next and only then makes it the current book.
func (s *Store) commit(ctx context.Context, next book) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	s.book = next
	return nil
}

func (b book) clone() book {
	out := make(book, len(b))
	for k, rows := range b {
		out[k] = append(make([]core.Transaction, 0, len(rows)+1), rows...)
	}
	return out
}

func (b book) has(key string, position int) bool {
	rows, ok := b[key]
	return ok && position >= 0 && position < len(rows)
}

func renumber(rows []core.Transaction) {
	for i := range rows {
		rows[i].Serial = i + 1
	}
}

func notFound(key string, position int) error {
	return fmt.Errorf("%w: %s #%d", core.ErrNotFound, key, position)
}
