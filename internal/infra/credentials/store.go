package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"brandkit/internal/domain"
	"brandkit/internal/infra"
	"brandkit/internal/sqlinline"
)

// ProviderGemini keys the Gemini API key row.
const ProviderGemini = "gemini"

// ProviderKey is a stored provider API key with its rotation metadata.
type ProviderKey struct {
	Provider   string
	Token      string
	Properties map[string]any
	UpdatedAt  time.Time
}

// Masked returns the key with all but the last four characters hidden.
func (k ProviderKey) Masked() string {
	if len(k.Token) <= 4 {
		return strings.Repeat("*", len(k.Token))
	}
	return strings.Repeat("*", len(k.Token)-4) + k.Token[len(k.Token)-4:]
}

// Store keeps provider API keys in Postgres so a deployment can rotate the
// Gemini key without redeploying with new env.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Get loads the key for provider. ok is false when none is stored.
func (s *Store) Get(ctx context.Context, provider string) (ProviderKey, bool, error) {
	key := ProviderKey{Provider: provider}
	var props []byte
	err := s.sql.QueryRow(ctx, sqlinline.QGetProviderKey, provider).Scan(&key.Token, &props, &key.UpdatedAt)
	if infra.IsNoRows(err) {
		return ProviderKey{}, false, nil
	}
	if err != nil {
		return ProviderKey{}, false, fmt.Errorf("load %s key: %w", provider, err)
	}
	key.Token = strings.TrimSpace(key.Token)
	if len(props) > 0 {
		if err := json.Unmarshal(props, &key.Properties); err != nil {
			return ProviderKey{}, false, fmt.Errorf("decode %s key properties: %w", provider, err)
		}
	}
	return key, key.Token != "", nil
}

// GeminiAPIKey returns the stored Gemini key, or "" when none is stored.
func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	key, _, err := s.Get(ctx, ProviderGemini)
	return key.Token, err
}

// Put stores token for provider. props are merged into the existing
// properties.
func (s *Store) Put(ctx context.Context, provider, token string, props map[string]any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: %s api key is required", domain.ErrInvalidInput, provider)
	}
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QPutProviderKey, provider, token, raw); err != nil {
		return fmt.Errorf("store %s key: %w", provider, err)
	}
	return nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string, props map[string]any) error {
	return s.Put(ctx, ProviderGemini, key, props)
}

// Delete removes the key for provider and reports whether one existed.
func (s *Store) Delete(ctx context.Context, provider string) (bool, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteProviderKey, provider)
	if err != nil {
		return false, fmt.Errorf("delete %s key: %w", provider, err)
	}
	return tag.RowsAffected() > 0, nil
}
