package credentials

import (
	"context"
	"encoding/json"
	"strings"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/sqlinline"
)

// ProviderKrea is the integration_tokens row holding the generation API token.
const ProviderKrea = "krea"

// Store persists provider tokens in the integration_tokens table.
type Store struct {
	sql      infra.SQLExecutor
	provider string
}

// NewStore binds a store to one provider row. An empty provider means
// ProviderKrea.
func NewStore(sql infra.SQLExecutor, provider string) *Store {
	if strings.TrimSpace(provider) == "" {
		provider = ProviderKrea
	}
	return &Store{sql: sql, provider: provider}
}

func (s *Store) Name() string { return "postgres" }

// Load returns the stored token, or "" when the row is absent.
func (s *Store) Load(ctx context.Context) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, s.provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Validationf("token is required")
	}
	return s.upsert(ctx, token, nil)
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, s.provider)
	return err
}

func (s *Store) upsert(ctx context.Context, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, s.provider, token, raw)
	return err
}

var _ Backend = (*Store)(nil)
