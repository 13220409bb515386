package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"rodger/internal/amqp"
	"rodger/internal/core"
	"rodger/internal/interpreter"
	"rodger/internal/items"
	"rodger/internal/ledger"
	"rodger/internal/log"
)

// TodayKey is accepted wherever a partition key is expected.
const TodayKey = "today"

// Publisher receives ledger events after they are persisted.
type Publisher interface {
	PublishEvent(ctx context.Context, e *amqp.LedgerEvent) error
	Close() error
}

// Outcome is the result of recording one spoken or typed command.
type Outcome struct {
	Report      bool              `json:"report"`
	Intent      core.Intent       `json:"intent"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Position    int               `json:"position"`
	ItemAdded   bool              `json:"item_added"`
}

// RangeResult is a date-range query with its totals.
type RangeResult struct {
	Entries []core.Entry `json:"entries"`
	Totals  core.Totals  `json:"totals"`
}

type Option func(*LedgerService)

// WithPublisher enables event publication.
func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithCloser registers a resource released by Close, such as the storage
// backend.
func WithCloser(c io.Closer) Option {
	return func(s *LedgerService) { s.closers = append(s.closers, c) }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *LedgerService) {
		s.now = now
		s.loc = loc
	}
}

// LedgerService sequences interpreter, ledger and item registry. The ledger
// and registry are independent stores; the only write that spans both is
// DeleteItem, which always updates the registry first.
type LedgerService struct {
	parser    *interpreter.Parser
	ledger    *ledger.Store
	registry  *items.Registry
	publisher Publisher
	closers   []io.Closer
	logger    *log.Logger
	now       func() time.Time
	loc       *time.Location
}

func NewLedgerService(parser *interpreter.Parser, book *ledger.Store, registry *items.Registry, opts ...Option) *LedgerService {
	s := &LedgerService{
		parser:   parser,
		ledger:   book,
		registry: registry,
		logger:   log.Discard(),
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentService)
	return s
}

// Preview interprets text without recording anything.
func (s *LedgerService) Preview(text string) core.Intent {
	return s.parser.Parse(text)
}

// Record interprets text and files the resulting transaction. Report
// requests are returned untouched.
func (s *LedgerService) Record(ctx context.Context, text string) (Outcome, error) {
	intent := s.parser.Parse(text)
	if intent.IsReport {
		return Outcome{Report: true, Intent: intent}, nil
	}

	if intent.Item != core.NoItem {
		intent.Item = items.Normalize(intent.Item)
	}

	tx, err := s.ledger.AddTransaction(ctx, intent)
	if err != nil {
		return Outcome{Intent: intent}, fmt.Errorf("record transaction: %w", err)
	}
	out := Outcome{Intent: intent, Transaction: &tx, Position: tx.Serial - 1}
	out.ItemAdded = s.registerItem(ctx, tx.ItemName)

	event := amqp.NewTransactionEvent(amqp.TransactionCreated, tx.Date, out.Position, tx)
	event.Type = intent.Type
	s.publish(ctx, event)
	return out, nil
}

// Today returns the partition key for the current day.
func (s *LedgerService) Today() string {
	return core.PartitionKey(s.now().In(s.loc))
}

// Partition returns the records of one day. key may be TodayKey.
func (s *LedgerService) Partition(key string) []core.Transaction {
	if key == TodayKey {
		key = s.Today()
	}
	return s.ledger.Partition(key)
}

// Range returns the entries between two ISO dates, optionally restricted to
// customers whose name contains customer, with their totals.
func (s *LedgerService) Range(from, to, customer string) (RangeResult, error) {
	entries, err := s.ledger.Range(from, to)
	if err != nil {
		return RangeResult{}, err
	}
	if q := strings.ToLower(strings.TrimSpace(customer)); q != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.CustomerName), q) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	return RangeResult{Entries: entries, Totals: core.Sum(entries)}, nil
}

// UpdateTransaction edits one record. A new item name is normalized and
// registered.
func (s *LedgerService) UpdateTransaction(ctx context.Context, key string, position int, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return core.Transaction{}, fmt.Errorf("%w: nothing to update", core.ErrValidation)
	}
	if key == TodayKey {
		key = s.Today()
	}
	if patch.ItemName != nil {
		name := strings.TrimSpace(*patch.ItemName)
		switch {
		case name == "":
			name = core.NoItem
		case name != core.NoItem && !core.IsDeletedItem(name):
			name = items.Normalize(name)
		}
		patch.ItemName = &name
	}

	tx, err := s.ledger.UpdateTransaction(ctx, key, position, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	if patch.ItemName != nil {
		s.registerItem(ctx, tx.ItemName)
	}
	s.publish(ctx, amqp.NewTransactionEvent(amqp.TransactionUpdated, key, position, tx))
	return tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, key string, position int) error {
	if key == TodayKey {
		key = s.Today()
	}
	removed, err := s.ledger.DeleteTransaction(ctx, key, position)
	if err != nil {
		return err
	}
	s.publish(ctx, amqp.NewTransactionEvent(amqp.TransactionDeleted, key, position, removed))
	return nil
}

func (s *LedgerService) AddItem(ctx context.Context, name string) (bool, error) {
	return s.registry.AddItem(ctx, name)
}

func (s *LedgerService) SearchItems(query string) []core.Item {
	return s.registry.Search(query)
}

func (s *LedgerService) Items() []core.Item {
	return s.registry.Items()
}

// PopulateItems bootstraps an empty registry from the ledger.
func (s *LedgerService) PopulateItems(ctx context.Context) (int, error) {
	return s.registry.PopulateFromLedger(ctx, s.ledger)
}

// DeleteItem removes name from the registry, then marks every ledger record
// that references it. It reports false if the registry had no such item.
func (s *LedgerService) DeleteItem(ctx context.Context, name string) (bool, error) {
	ok, err := s.registry.DeleteItem(ctx, name, s.ledger)
	if ok {
		s.publish(ctx, amqp.NewItemDeletedEvent(name))
	}
	return ok, err
}

func (s *LedgerService) registerItem(ctx context.Context, name string) bool {
	if name == core.NoItem || core.IsDeletedItem(name) {
		return false
	}
	added, err := s.registry.AddItem(ctx, name)
	if err != nil {
		// The transaction is already stored; the registry can be rebuilt.
		s.logger.ErrorContext(ctx, "Failed to register item", log.FieldItem, name, log.FieldError, err)
		return false
	}
	return added
}

func (s *LedgerService) publish(ctx context.Context, e *amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping event", log.FieldEventKind, e.Kind)
		return
	}
	if err := s.publisher.PublishEvent(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, e.Kind, log.FieldEventID, e.ID, log.FieldError, err)
	}
}

// Close releases the publisher and every registered closer.
func (s *LedgerService) Close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
