package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"stagewatch/contexts/crm-compliance/sla-engine/application/commands"
	"stagewatch/contexts/crm-compliance/sla-engine/application/queries"
	"stagewatch/contexts/crm-compliance/sla-engine/application/workers"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	httptransport "stagewatch/contexts/crm-compliance/sla-engine/transport/http"
)

type Handler struct {
	CreateRule       commands.CreateRuleUseCase
	SetRuleActive    commands.SetRuleActiveUseCase
	StampStageChange commands.StampStageChangeUseCase
	ListRules        queries.ListRulesUseCase
	GetRule          queries.GetRuleUseCase
	ListBreaches     queries.ListBreachesUseCase
	Detector         workers.BreachDetector
	Summary          workers.DailySummary
	Logger           *slog.Logger
}

func (h Handler) CreateRuleHandler(ctx context.Context, req httptransport.CreateRuleRequest) (httptransport.CreateRuleResponse, error) {
	rule, err := h.CreateRule.Execute(ctx, commands.CreateRuleCommand{
		Vertical:        req.Vertical,
		AppliesTo:       req.AppliesTo,
		Stages:          append([]string(nil), req.Stages...),
		MaxHoursAllowed: req.MaxHoursAllowed,
		Active:          req.Active,
		NotifyTo:        append([]string(nil), req.NotifyTo...),
		Message:         req.Message,
	})
	if err != nil {
		return httptransport.CreateRuleResponse{}, err
	}
	return httptransport.CreateRuleResponse{Rule: mapRule(rule)}, nil
}

func (h Handler) SetRuleActiveHandler(ctx context.Context, ruleID string, active bool) error {
	return h.SetRuleActive.Execute(ctx, commands.SetRuleActiveCommand{
		RuleID: ruleID,
		Active: active,
	})
}

func (h Handler) ListRulesHandler(ctx context.Context) (httptransport.ListRulesResponse, error) {
	items, err := h.ListRules.Execute(ctx)
	if err != nil {
		return httptransport.ListRulesResponse{}, err
	}
	result := make([]httptransport.RuleDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapRule(item))
	}
	return httptransport.ListRulesResponse{Items: result}, nil
}

func (h Handler) GetRuleHandler(ctx context.Context, ruleID string) (httptransport.GetRuleResponse, error) {
	rule, err := h.GetRule.Execute(ctx, ruleID)
	if err != nil {
		return httptransport.GetRuleResponse{}, err
	}
	return httptransport.GetRuleResponse{Rule: mapRule(rule)}, nil
}

func (h Handler) ListBreachesHandler(ctx context.Context, sinceHours float64) (httptransport.ListBreachesResponse, error) {
	items, err := h.ListBreaches.Execute(ctx, queries.ListBreachesQuery{SinceHours: sinceHours})
	if err != nil {
		return httptransport.ListBreachesResponse{}, err
	}
	result := make([]httptransport.BreachEventDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapBreach(item))
	}
	return httptransport.ListBreachesResponse{Items: result}, nil
}

func (h Handler) RunDetectorHandler(ctx context.Context) (httptransport.RunDetectorResponse, error) {
	count, err := h.Detector.RunOnce(ctx)
	if err != nil {
		return httptransport.RunDetectorResponse{}, err
	}
	return httptransport.RunDetectorResponse{BreachCount: count}, nil
}

func (h Handler) RunSummaryHandler(ctx context.Context) (httptransport.RunSummaryResponse, error) {
	count, err := h.Summary.RunOnce(ctx)
	if err != nil {
		return httptransport.RunSummaryResponse{}, err
	}
	return httptransport.RunSummaryResponse{ConsideredCount: count}, nil
}

// StageChangeHandler is the save-pipeline hook: the record store posts
// the previous and in-progress record state and persists whatever comes
// back. It deliberately has no error path.
func (h Handler) StageChangeHandler(ctx context.Context, req httptransport.StageChangeRequest) httptransport.StageChangeResponse {
	var previous *entities.MonitoredRecord
	if req.Previous != nil {
		record := recordFromDTO(*req.Previous)
		previous = &record
	}
	stamped := h.StampStageChange.Execute(ctx, commands.StampStageChangeCommand{
		Previous: previous,
		Next:     recordFromDTO(req.Next),
	})
	return httptransport.StageChangeResponse{Record: mapRecord(stamped)}
}

func mapRule(item entities.Rule) httptransport.RuleDTO {
	return httptransport.RuleDTO{
		RuleID:          item.RuleID,
		Vertical:        item.Vertical,
		AppliesTo:       string(item.AppliesTo),
		StageField:      item.StageField,
		Stages:          append([]string(nil), item.Stages...),
		MaxHoursAllowed: item.MaxHoursAllowed,
		Active:          item.Active,
		NotifyTo:        append([]string(nil), item.NotifyTo...),
		Message:         item.Message,
		CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapBreach(item entities.BreachEvent) httptransport.BreachEventDTO {
	return httptransport.BreachEventDTO{
		BreachID:      item.BreachID,
		Vertical:      item.Vertical,
		EntityType:    string(item.EntityType),
		RecordID:      item.RecordID,
		RecordOwner:   item.RecordOwner,
		Stage:         item.Stage,
		HoursExceeded: item.HoursExceeded,
		DwellStartAt:  item.DwellStartAt.UTC().Format(time.RFC3339),
		DetectedAt:    item.DetectedAt.UTC().Format(time.RFC3339),
		Recipient:     item.Recipient,
		Message:       item.Message,
	}
}

func mapRecord(item entities.MonitoredRecord) httptransport.RecordStateDTO {
	return httptransport.RecordStateDTO{
		EntityType:        string(item.EntityType),
		RecordID:          item.RecordID,
		Owner:             item.Owner,
		Vertical:          item.Vertical,
		Stage:             item.Stage,
		CreatedAt:         formatOptionalTime(item.CreatedAt),
		LastStageChangeOn: formatOptionalTime(item.LastStageChangeOn),
		ModifiedAt:        formatOptionalTime(item.ModifiedAt),
	}
}

func recordFromDTO(dto httptransport.RecordStateDTO) entities.MonitoredRecord {
	return entities.MonitoredRecord{
		EntityType:        entities.EntityType(dto.EntityType),
		RecordID:          dto.RecordID,
		Owner:             dto.Owner,
		Vertical:          dto.Vertical,
		Stage:             dto.Stage,
		CreatedAt:         parseOptionalTime(dto.CreatedAt),
		LastStageChangeOn: parseOptionalTime(dto.LastStageChangeOn),
		ModifiedAt:        parseOptionalTime(dto.ModifiedAt),
	}
}

func formatOptionalTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func parseOptionalTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
