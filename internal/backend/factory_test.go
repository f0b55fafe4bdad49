package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"findash/internal/config"
	"findash/internal/core"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:   "mongo",
		MongoURI:      "mongodb://db:27017",
		MongoDatabase: "findash",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != MongoBackend || cfg.MongoURI != "mongodb://db:27017" || cfg.MongoDatabase != "findash" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"mongo", Config{Type: MongoBackend, MongoURI: "mongodb://localhost", MongoDatabase: "db"}, false},
		{"mongo without uri", Config{Type: MongoBackend, MongoDatabase: "db"}, true},
		{"mongo without database", Config{Type: MongoBackend, MongoURI: "mongodb://localhost"}, true},
		{"unknown", Config{Type: "postgres"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(discard())

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "findash.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()

			if err := res.Store.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
			tx := core.Transaction{ID: 1, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 10, Category: core.CategoryRevenue, Status: core.StatusPaid, UserID: "u1", UserProfile: "Alice"}
			if err := res.Store.InsertMany(ctx, []core.Transaction{tx}); err != nil {
				t.Fatalf("InsertMany: %v", err)
			}
			n, err := res.Store.Count(ctx, core.Filter{})
			if err != nil || n != 1 {
				t.Fatalf("Count = %d, %v", n, err)
			}
		})
	}
}

func TestFactory_CreateBackend_Errors(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := f.CreateBackend(context.Background(), Config{Type: MongoBackend, MongoURI: "http://nope", MongoDatabase: "db"}); err == nil {
		t.Fatal("expected error for malformed mongo uri")
	}
}
