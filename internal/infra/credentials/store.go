// Package credentials keeps third-party API keys in the database so they can
// be rotated without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"styleai/internal/infra"
	"styleai/internal/sqlinline"
)

const ProviderGemini = "gemini"

// Gemini is a stored Gemini key plus the image model it was issued for.
type Gemini struct {
	APIKey string
	Model  string
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Gemini returns the stored credentials. A missing row is not an error; the
// zero value is returned.
func (s *Store) Gemini(ctx context.Context) (Gemini, error) {
	var g Gemini
	err := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, ProviderGemini).Scan(&g.APIKey, &g.Model)
	if err != nil {
		if infra.IsNoRows(err) {
			return Gemini{}, nil
		}
		return Gemini{}, err
	}
	g.APIKey = strings.TrimSpace(g.APIKey)
	g.Model = strings.TrimSpace(g.Model)
	return g, nil
}

// SetGemini stores the key and, when non-empty, the model.
func (s *Store) SetGemini(ctx context.Context, g Gemini) error {
	key := strings.TrimSpace(g.APIKey)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	props := map[string]any{}
	if model := strings.TrimSpace(g.Model); model != "" {
		props["model"] = model
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, ProviderGemini, key, raw)
	return err
}

// ResolveGemini prefers explicitly configured values and falls back to the
// stored credentials for anything left empty.
func (s *Store) ResolveGemini(ctx context.Context, configured Gemini) (Gemini, error) {
	if configured.APIKey != "" && configured.Model != "" {
		return configured, nil
	}
	stored, err := s.Gemini(ctx)
	if err != nil {
		return configured, err
	}
	if configured.APIKey == "" {
		configured.APIKey = stored.APIKey
	}
	if configured.Model == "" {
		configured.Model = stored.Model
	}
	return configured, nil
}
