package commands

import (
	"context"
	"log/slog"

	application "stagewatch/contexts/crm-compliance/sla-engine/application"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

type StampStageChangeCommand struct {
	// Previous is nil when the record is being created for the first time.
	Previous *entities.MonitoredRecord
	Next     entities.MonitoredRecord
}

// StampStageChangeUseCase runs synchronously on the record store's save
// pipeline, immediately before a monitored record is persisted. It must
// never block or fail that pipeline: the only output is the returned
// record, whose LastStageChangeOn is refreshed when the monitored stage
// field's value changed (or on first creation) and left untouched
// otherwise.
type StampStageChangeUseCase struct {
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc StampStageChangeUseCase) Execute(_ context.Context, cmd StampStageChangeCommand) entities.MonitoredRecord {
	record := cmd.Next

	if cmd.Previous == nil {
		record.LastStageChangeOn = uc.Clock.Now().UTC()
		return record
	}

	if cmd.Previous.Stage != record.Stage {
		record.LastStageChangeOn = uc.Clock.Now().UTC()
		application.ResolveLogger(uc.Logger).Debug("stage change stamped",
			"event", "sla_stage_change_stamped",
			"module", "crm-compliance/sla-engine",
			"layer", "application",
			"entity_type", string(record.EntityType),
			"record_id", record.RecordID,
			"from_stage", cmd.Previous.Stage,
			"to_stage", record.Stage,
		)
		return record
	}

	record.LastStageChangeOn = cmd.Previous.LastStageChangeOn
	return record
}
