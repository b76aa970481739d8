package commands

import (
	"context"
	"log/slog"
	"strings"

	application "stagewatch/contexts/crm-compliance/sla-engine/application"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	domainerrors "stagewatch/contexts/crm-compliance/sla-engine/domain/errors"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

type CreateRuleCommand struct {
	Vertical        string
	AppliesTo       string
	Stages          []string
	MaxHoursAllowed float64
	Active          bool
	NotifyTo        []string
	Message         string
}

type CreateRuleUseCase struct {
	Rules  ports.RuleRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc CreateRuleUseCase) Execute(ctx context.Context, cmd CreateRuleCommand) (entities.Rule, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()

	entityType := entities.EntityType(strings.TrimSpace(cmd.AppliesTo))
	rule := entities.Rule{
		Vertical:        strings.TrimSpace(cmd.Vertical),
		AppliesTo:       entityType,
		StageField:      entityType.StageField(),
		Stages:          append([]string(nil), cmd.Stages...),
		MaxHoursAllowed: cmd.MaxHoursAllowed,
		Active:          cmd.Active,
		NotifyTo:        normalizeNotifyList(cmd.NotifyTo),
		Message:         strings.TrimSpace(cmd.Message),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if !rule.ValidateBasics() {
		return entities.Rule{}, domainerrors.ErrInvalidRuleInput
	}

	ruleID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Rule{}, err
	}
	rule.RuleID = ruleID

	if err := uc.Rules.CreateRule(ctx, rule); err != nil {
		return entities.Rule{}, err
	}

	logger.Info("sla rule created",
		"event", "sla_rule_created",
		"module", "crm-compliance/sla-engine",
		"layer", "application",
		"rule_id", rule.RuleID,
		"vertical", rule.Vertical,
		"applies_to", string(rule.AppliesTo),
		"max_hours_allowed", rule.MaxHoursAllowed,
	)
	return rule, nil
}

func normalizeNotifyList(addresses []string) []string {
	result := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if normalized := entities.NormalizeEmail(address); normalized != "" {
			result = append(result, normalized)
		}
	}
	return result
}
