package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"rodger/internal/amqp"
	"rodger/internal/log"
)

// maxSeenEvents bounds the IDs remembered for duplicate detection.
const maxSeenEvents = 4096

// DayActivity tallies the events seen for one ledger partition.
type DayActivity struct {
	PartitionKey string          `json:"partition_key"`
	Created      int             `json:"created"`
	Updated      int             `json:"updated"`
	Deleted      int             `json:"deleted"`
	NetAmount    decimal.Decimal `json:"net_amount"`
}

// EventWorker consumes ledger events and keeps per-day activity counters.
// Redelivered events are recognised by ID and counted once, as long as the
// ID is among the most recent maxSeenEvents.
type EventWorker struct {
	mu           sync.Mutex
	logger       *log.Logger
	days         map[string]*DayActivity
	itemsDeleted []string
	seen         map[string]struct{}
	recent       []string // ring of seen IDs, oldest at next
	next         int
}

func NewEventWorker(logger *log.Logger) *EventWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventWorker{
		logger: logger.WithComponent(log.ComponentWorker),
		days:   make(map[string]*DayActivity),
		seen:   make(map[string]struct{}),
	}
}

// HandleEvent records one event. Unknown kinds are rejected so the broker
// can dead-letter them.
func (w *EventWorker) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, dup := w.seen[e.ID]; dup {
		w.logger.DebugContext(ctx, "Skipping duplicate event", log.FieldEventID, e.ID)
		return nil
	}

	amount := decimal.NewFromFloat(e.Amount)
	switch e.Kind {
	case amqp.TransactionCreated:
		day := w.day(e.PartitionKey)
		day.Created++
		day.NetAmount = day.NetAmount.Add(amount)
	case amqp.TransactionUpdated:
		w.day(e.PartitionKey).Updated++
	case amqp.TransactionDeleted:
		day := w.day(e.PartitionKey)
		day.Deleted++
		day.NetAmount = day.NetAmount.Sub(amount)
	case amqp.ItemDeleted:
		w.itemsDeleted = append(w.itemsDeleted, e.ItemName)
	default:
		return fmt.Errorf("unsupported event kind %q", e.Kind)
	}
	w.remember(e.ID)

	w.logger.InfoContext(ctx, "Ledger event processed",
		log.FieldEventID, e.ID,
		log.FieldEventKind, e.Kind,
		log.FieldPartition, e.PartitionKey,
		log.FieldCustomer, e.CustomerName,
		log.FieldItem, e.ItemName,
		log.FieldAmount, e.Amount)
	return nil
}

func (w *EventWorker) remember(id string) {
	if len(w.recent) < maxSeenEvents {
		w.recent = append(w.recent, id)
	} else {
		delete(w.seen, w.recent[w.next])
		w.recent[w.next] = id
		w.next = (w.next + 1) % maxSeenEvents
	}
	w.seen[id] = struct{}{}
}

func (w *EventWorker) day(key string) *DayActivity {
	d, ok := w.days[key]
	if !ok {
		d = &DayActivity{PartitionKey: key, NetAmount: decimal.Zero}
		w.days[key] = d
	}
	return d
}

// Summary returns a snapshot of the per-day counters sorted by key.
func (w *EventWorker) Summary() []DayActivity {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]DayActivity, 0, len(w.days))
	for _, d := range w.days {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartitionKey < out[j].PartitionKey })
	return out
}

// DeletedItems lists item names removed from the registry, in arrival order.
func (w *EventWorker) DeletedItems() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.itemsDeleted...)
}

// LogSummary writes one line per day.
func (w *EventWorker) LogSummary(ctx context.Context) {
	for _, d := range w.Summary() {
		w.logger.InfoContext(ctx, "Ledger activity",
			log.FieldPartition, d.PartitionKey,
			"created", d.Created, "updated", d.Updated, "deleted", d.Deleted,
			"net_amount", d.NetAmount.String())
	}
}
