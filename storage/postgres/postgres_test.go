package postgres

import (
	"strings"
	"testing"
	"time"
)

func TestSetClauseIsDeterministic(t *testing.T) {
	columns := map[string]any{
		"status":              "voided",
		"cancellation_reason": "requested_by_customer",
		"updated_by":          "postgres_only",
	}

	set, args := setClause(columns)
	want := "cancellation_reason = $1, status = $2, updated_by = $3, modified_at = now()"
	if set != want {
		t.Fatalf("expected sorted clause %q, got %q", want, set)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != "requested_by_customer" || args[1] != "voided" || args[2] != "postgres_only" {
		t.Fatalf("args out of order: %v", args)
	}

	// map iteration order must never leak into the query text
	for i := 0; i < 50; i++ {
		again, _ := setClause(columns)
		if again != set {
			t.Fatalf("clause changed between calls: %q vs %q", set, again)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(2, 3); got != "$2, $3, $4" {
		t.Fatalf("unexpected placeholders: %q", got)
	}
	if got := placeholders(1, 1); got != "$1" {
		t.Fatalf("unexpected placeholders: %q", got)
	}
	if got := placeholders(5, 0); got != "" {
		t.Fatalf("expected empty list, got %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig("postgres://localhost:5432/payments")
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.URL = "" }},
		{"zero ping timeout", func(c *Config) { c.PingTimeout = 0 }},
		{"zero open conns", func(c *Config) { c.MaxOpenConns = 0 }},
		{"negative idle conns", func(c *Config) { c.MaxIdleConns = -1 }},
		{"idle above open", func(c *Config) { c.MaxOpenConns = 2; c.MaxIdleConns = 3 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig("postgres://localhost:5432/payments")
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultConfigPoolSettings(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost:5432/payments")
	if cfg.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected ping timeout: %s", cfg.PingTimeout)
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		t.Fatal("defaults must satisfy their own validation")
	}
}

func TestColumnConstantsNameNaturalKeys(t *testing.T) {
	// scan order and column order are coupled; the natural keys must stay
	// in front
	for name, columns := range map[string]string{
		"payment intents": paymentIntentColumns,
		"payouts":         payoutColumns,
		"jobs":            jobColumns,
	} {
		first := strings.SplitN(columns, ",", 2)[0]
		if strings.TrimSpace(first) == "" {
			t.Fatalf("%s: empty leading column", name)
		}
		if !strings.HasSuffix(strings.TrimSpace(first), "_id") {
			t.Fatalf("%s: expected a natural key first, got %q", name, first)
		}
	}
}
