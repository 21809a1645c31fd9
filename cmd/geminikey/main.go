package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"brandkit/internal/adapter/repo"
	"brandkit/internal/infra"
	"brandkit/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag   string
		noteFlag  string
		showFlag  bool
		clearFlag bool
	)
	flag.StringVar(&keyFlag, "key", "", "Gemini API key to store (falls back to GEMINI_API_KEY)")
	flag.StringVar(&noteFlag, "note", "", "optional note stored alongside the key")
	flag.BoolVar(&showFlag, "show", false, "print the stored key (masked) and exit")
	flag.BoolVar(&clearFlag, "clear", false, "remove the stored key and exit")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fail("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fail("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		fail("failed to connect database: %v", err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", cfg.LogLevel).With().Str("cmd", "geminikey").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if err := repo.NewHistoryRepository(runner).EnsureSchema(ctx); err != nil {
		fail("failed to ensure schema: %v", err)
	}
	store := credentials.NewStore(runner)

	switch {
	case showFlag:
		key, ok, err := store.Get(ctx, credentials.ProviderGemini)
		if err != nil {
			fail("%v", err)
		}
		if !ok {
			fmt.Println("no Gemini API key stored")
			return
		}
		fmt.Printf("%s (updated %s)\n", key.Masked(), key.UpdatedAt.Format(time.RFC3339))
		if note, _ := key.Properties["note"].(string); note != "" {
			fmt.Println("note:", note)
		}
	case clearFlag:
		removed, err := store.Delete(ctx, credentials.ProviderGemini)
		if err != nil {
			fail("%v", err)
		}
		if removed {
			fmt.Println("Gemini API key removed")
		} else {
			fmt.Println("no Gemini API key stored")
		}
	default:
		key := strings.TrimSpace(keyFlag)
		if key == "" {
			key = cfg.GeminiAPIKey
		}
		if key == "" {
			fail("Gemini API key is required via -key or GEMINI_API_KEY")
		}
		props := map[string]any{"stored_at": time.Now().UTC().Format(time.RFC3339)}
		if note := strings.TrimSpace(noteFlag); note != "" {
			props["note"] = note
		}
		if err := store.SetGeminiAPIKey(ctx, key, props); err != nil {
			fail("failed to persist gemini api key: %v", err)
		}
		fmt.Println("Gemini API key stored successfully")
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
