package advisecli

import (
	"context"
	"fmt"

	"github.com/okian/overcall/internal/adapters/repository"
	service "github.com/okian/overcall/internal/app"
	"github.com/okian/overcall/internal/domain/types"
)

// Local runs the engine in-process with no evaluators configured, so the
// answer is the deterministic rules fallback. Baselines come from the
// optional SQLite file.
func Local(ctx context.Context, cfg Config, payload map[string]any) (types.AdviceResponse, error) {
	var store repository.Store = repository.NewMemoryStore()
	if cfg.BaselineDB != "" {
		st, err := repository.OpenSQLite(ctx, cfg.BaselineDB)
		if err != nil {
			return types.AdviceResponse{}, fmt.Errorf("open baselines: %w", err)
		}
		store = st
	}
	defer store.Close()

	svc := service.New(service.WithStore(store))
	return svc.Advise(ctx, payload, cfg.RequestID)
}
