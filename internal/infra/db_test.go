package infra

import (
	"context"
	"errors"
	"testing"
)

func TestNewDBPoolDisabled(t *testing.T) {
	if _, err := NewDBPool(context.Background(), &Config{DatabaseURL: "  "}); !errors.Is(err, ErrDatabaseDisabled) {
		t.Fatalf("err = %v, want ErrDatabaseDisabled", err)
	}
	if _, err := NewDBPool(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig(&Config{DatabaseURL: "postgres://u:p@db.internal:5432/brandkit", DBMaxConns: 7})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConns != 7 || cfg.MinConns != 0 {
		t.Fatalf("conns = %d/%d", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.ConnConfig.RuntimeParams["application_name"] != "brandkit" {
		t.Fatalf("runtime params = %v", cfg.ConnConfig.RuntimeParams)
	}

	cfg, err = poolConfig(&Config{DatabaseURL: "postgres://db.internal/brandkit"})
	if err != nil || cfg.MaxConns != 4 {
		t.Fatalf("default pool = %v, %v", cfg, err)
	}
	if _, err := poolConfig(&Config{DatabaseURL: "postgres://%zz"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRedactURL(t *testing.T) {
	cases := map[string]string{
		"postgres://user:secret@db:5432/app": "postgres://db:5432/app",
		"postgres://db/app":                  "postgres://db/app",
		"host=db user=x":                     "<dsn>",
	}
	for in, want := range cases {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}
