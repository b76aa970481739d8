package queries

import (
	"context"
	"log/slog"
	"strings"

	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	domainerrors "stagewatch/contexts/crm-compliance/sla-engine/domain/errors"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

type ListRulesUseCase struct {
	Rules  ports.RuleRepository
	Logger *slog.Logger
}

func (uc ListRulesUseCase) Execute(ctx context.Context) ([]entities.Rule, error) {
	return uc.Rules.ListRules(ctx)
}

type GetRuleUseCase struct {
	Rules  ports.RuleRepository
	Logger *slog.Logger
}

func (uc GetRuleUseCase) Execute(ctx context.Context, ruleID string) (entities.Rule, error) {
	ruleID = strings.TrimSpace(ruleID)
	if ruleID == "" {
		return entities.Rule{}, domainerrors.ErrInvalidRuleInput
	}
	return uc.Rules.GetRule(ctx, ruleID)
}
