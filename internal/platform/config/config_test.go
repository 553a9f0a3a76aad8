package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("HERO_STORE", "Memory")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("expected store %q, got %q", StoreMemory, cfg.Store)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default addr %q", cfg.HTTPAddr)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("unexpected read timeout %v", cfg.ReadTimeout)
	}
	if cfg.MaxRequestBody != 1<<20 {
		t.Fatalf("unexpected body limit %d", cfg.MaxRequestBody)
	}
	if cfg.Mongo.Database != "heroes" {
		t.Fatalf("unexpected mongo database %q", cfg.Mongo.Database)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("HERO_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/heroes.db")
	t.Setenv("HERO_CACHE_TTL", "2m")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if cfg.SQLitePath != "/tmp/heroes.db" {
		t.Fatalf("unexpected sqlite path %q", cfg.SQLitePath)
	}
	if cfg.HeroCacheTTL != 2*time.Minute {
		t.Fatalf("unexpected cache ttl %v", cfg.HeroCacheTTL)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("unexpected redis db %d", cfg.RedisDB)
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("HERO_STORE", "memory")
	t.Setenv("HTTP_READ_TIMEOUT", "soon")

	if _, err := Parse(); err == nil {
		t.Fatal("expected parse error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			HTTPAddr:        ":8080",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
			MaxRequestBody:  1024,
			Store:           StoreMemory,
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		mention string
	}{
		{"unknown store", func(c *Config) { c.Store = "cassandra" }, "HERO_STORE"},
		{"empty addr", func(c *Config) { c.HTTPAddr = "" }, "HTTP_ADDR"},
		{"zero timeout", func(c *Config) { c.WriteTimeout = 0 }, "timeouts"},
		{"zero body", func(c *Config) { c.MaxRequestBody = 0 }, "MAX_REQUEST_BODY_BYTES"},
		{"secret without ttl", func(c *Config) { c.JWTSecret = "s"; c.JWTTTL = 0 }, "JWT_TTL"},
		{"negative cache ttl", func(c *Config) { c.HeroCacheTTL = -time.Second }, "HERO_CACHE_TTL"},
		{"mongo without uri", func(c *Config) { c.Store = StoreMongo }, "MONGO_URI"},
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }, "POSTGRES_URL"},
		{"sqlite without path", func(c *Config) { c.Store = StoreSQLite }, "SQLITE_PATH"},
		{"surreal without url", func(c *Config) { c.Store = StoreSurreal }, "SURREAL_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.mention) {
				t.Fatalf("expected error to mention %s, got %v", tc.mention, err)
			}
		})
	}
}
