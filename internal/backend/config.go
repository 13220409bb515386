package backend

import (
	"errors"
	"fmt"
	"time"

	"rodger/internal/config"
)

// Config is the subset of application configuration the factory needs.
type Config struct {
	Type BackendType

	DataDir      string
	SQLiteDBPath string
	BoltDBPath   string
	LedgerKey    string
	ItemsKey     string

	RulesFile string
	Location  *time.Location

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt := BackendType(appConfig.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         bt,
		DataDir:      appConfig.DataDir,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		BoltDBPath:   appConfig.BoltDBPath,
		LedgerKey:    appConfig.LedgerKey,
		ItemsKey:     appConfig.ItemsKey,
		RulesFile:    appConfig.RulesFile,
		Location:     appConfig.Location(),
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case FileBackend:
		if c.DataDir == "" {
			return errors.New("data directory is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case BoltBackend:
		if c.BoltDBPath == "" {
			return errors.New("bolt database path is required for bolt backend")
		}
	}
	return nil
}
