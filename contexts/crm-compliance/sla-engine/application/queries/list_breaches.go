package queries

import (
	"context"
	"log/slog"
	"time"

	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

type ListBreachesQuery struct {
	SinceHours float64
}

type ListBreachesUseCase struct {
	Breaches ports.BreachLog
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc ListBreachesUseCase) Execute(ctx context.Context, query ListBreachesQuery) ([]entities.BreachEvent, error) {
	lookback := query.SinceHours
	if lookback <= 0 {
		lookback = 24
	}
	since := uc.Clock.Now().UTC().Add(-time.Duration(lookback * float64(time.Hour)))
	return uc.Breaches.ListBreachesSince(ctx, since)
}
