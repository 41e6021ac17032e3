package credentials

import (
	"context"
	"fmt"

	"mediagen/internal/infra"
)

// Open builds the backend named by cfg, loads the current token and returns
// the holder with a release func for any pooled resources.
func Open(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Holder, func(), error) {
	var (
		backend Backend
		release = func() {}
	)
	switch cfg.CredentialBackend {
	case infra.CredentialBackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		backend = NewStore(infra.NewSQLRunner(pool, logger), ProviderKrea)
		release = pool.Close
	case infra.CredentialBackendFile:
		fb, err := NewFileBackend(cfg.CredentialDir)
		if err != nil {
			return nil, nil, err
		}
		backend = fb
	default:
		return nil, nil, fmt.Errorf("credentials: unsupported backend %q", cfg.CredentialBackend)
	}

	holder := NewHolder(backend, cfg.DefaultToken, logger)
	if err := holder.Load(ctx); err != nil {
		release()
		return nil, nil, fmt.Errorf("credentials: load: %w", err)
	}
	return holder, release, nil
}
