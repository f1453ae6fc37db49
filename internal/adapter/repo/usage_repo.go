package repo

import (
	"context"
	"encoding/json"

	"styleai/internal/domain"
	"styleai/internal/infra"
	"styleai/internal/sqlinline"
)

type UsageRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewUsageRepository(sql infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{sql: sql}
}

func (r *UsageRepositoryPG) Record(ctx context.Context, ev domain.UsageEvent) error {
	var props []byte
	if len(ev.Properties) > 0 {
		raw, err := json.Marshal(ev.Properties)
		if err != nil {
			return err
		}
		props = raw
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageEvent,
		ev.UserID, ev.RequestID, ev.EventType, ev.Success, ev.LatencyMS, props,
	)
	return err
}

var _ domain.UsageRepository = (*UsageRepositoryPG)(nil)
