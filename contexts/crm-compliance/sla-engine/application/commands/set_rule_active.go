package commands

import (
	"context"
	"log/slog"
	"strings"

	application "stagewatch/contexts/crm-compliance/sla-engine/application"
	domainerrors "stagewatch/contexts/crm-compliance/sla-engine/domain/errors"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

type SetRuleActiveCommand struct {
	RuleID string
	Active bool
}

// SetRuleActiveUseCase toggles a rule. Deactivated rules drop out of the
// next detector scan entirely, including populations that were breaching.
type SetRuleActiveUseCase struct {
	Rules  ports.RuleRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc SetRuleActiveUseCase) Execute(ctx context.Context, cmd SetRuleActiveCommand) error {
	ruleID := strings.TrimSpace(cmd.RuleID)
	if ruleID == "" {
		return domainerrors.ErrInvalidRuleInput
	}

	if err := uc.Rules.SetRuleActive(ctx, ruleID, cmd.Active, uc.Clock.Now().UTC()); err != nil {
		return err
	}

	application.ResolveLogger(uc.Logger).Info("sla rule toggled",
		"event", "sla_rule_toggled",
		"module", "crm-compliance/sla-engine",
		"layer", "application",
		"rule_id", ruleID,
		"active", cmd.Active,
	)
	return nil
}
