package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rodger/internal/config"
)

func TestBackendType(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets is not a supported backend")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	app := &config.Config{DataBackend: "bolt", BoltDBPath: "x.bolt", Timezone: "UTC", LedgerKey: "l", ItemsKey: "i"}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if cfg.Type != BoltBackend || cfg.BoltDBPath != "x.bolt" || cfg.Location != time.UTC {
		t.Fatalf("unexpected config %+v", cfg)
	}
	app.DataBackend = "sheets"
	if _, err := FromAppConfig(app); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestCreateForEveryBackend(t *testing.T) {
	dir := t.TempDir()
	configs := []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDir: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "rodger.db")},
		{Type: BoltBackend, BoltDBPath: filepath.Join(dir, "bolt", "rodger.bolt")},
	}
	for _, cfg := range configs {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			cfg.LedgerKey, cfg.ItemsKey, cfg.Location = "rodger_daily_sheets", "rodger_items", time.UTC
			f := NewFactory(nil)
			f.now = func() time.Time { return time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC) }

			res, err := f.Create(context.Background(), cfg)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			out, err := res.Service.Record(context.Background(), "Ramesh se 500 mile")
			if err != nil || out.Transaction.Date != "05-03-2026" {
				t.Fatalf("record: %+v err=%v", out, err)
			}
			if err := res.Cleanup(); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		})
	}
}

func TestCreateUsesRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	rules := `
report: [history]
buckets:
  - type: expense
    keywords: [mile]
context: []
default_type: receivable
currency_units: [rs]
honorifics: [ji]
relation_particles: [se]
command_keywords: [add]
stopwords: [se, mile]
`
	if err := os.WriteFile(path, []byte(rules), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	res, err := NewFactory(nil).Create(context.Background(), Config{Type: MemoryBackend, RulesFile: path, Location: time.UTC})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer res.Cleanup()
	if got := res.Service.Preview("Ramesh se 500 mile"); got.Type != "expense" {
		t.Fatalf("custom rules ignored: %+v", got)
	}
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).Create(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected validation error")
	}
}
