package backend

import (
	"context"
	"fmt"
	"time"

	"rodger/internal/amqp"
	"rodger/internal/interpreter"
	"rodger/internal/items"
	"rodger/internal/ledger"
	"rodger/internal/log"
	"rodger/internal/services"
	"rodger/internal/storage"
	"rodger/internal/storage/bolt"
	"rodger/internal/storage/file"
	"rodger/internal/storage/memory"
	"rodger/internal/storage/sqlite"
)

type DefaultFactory struct {
	logger *log.Logger
	now    func() time.Time
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend), now: time.Now}
}

// OpenStorage opens the document backend selected by config.
func OpenStorage(config Config) (storage.Backend, error) {
	switch config.Type {
	case MemoryBackend:
		return memory.New(), nil
	case FileBackend:
		return file.New(config.DataDir)
	case SQLiteBackend:
		return sqlite.NewRepository(config.SQLiteDBPath)
	case BoltBackend:
		return bolt.New(config.BoltDBPath)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Create opens storage, loads ledger and registry, builds the parser and,
// when configured, connects the event publisher. A broker that cannot be
// reached disables publishing instead of failing startup.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	rules := interpreter.DefaultRules()
	if config.RulesFile != "" {
		loaded, err := interpreter.LoadRules(config.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	parser, err := interpreter.New(rules, interpreter.WithClock(f.now), interpreter.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("build interpreter: %w", err)
	}

	store, err := OpenStorage(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", config.Type, err)
	}

	book, err := ledger.Open(ctx, store, config.LedgerKey, f.logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	registry, err := items.Open(ctx, store, config.ItemsKey,
		items.WithClock(f.now), items.WithLocation(loc), items.WithLogger(f.logger))
	if err != nil {
		store.Close()
		return nil, err
	}

	opts := []services.Option{
		services.WithCloser(store),
		services.WithLogger(f.logger),
		services.WithClock(f.now, loc),
	}
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange, "queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(client))
		}
	}

	svc := services.NewLedgerService(parser, book, registry, opts...)
	f.logger.InfoContext(ctx, "Initialized backend", "type", config.Type.String(), "amqp_enabled", config.AMQPURL != "")

	return &Result{Service: svc, Cleanup: svc.Close}, nil
}
