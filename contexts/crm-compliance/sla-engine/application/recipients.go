package application

import (
	"context"
	"log/slog"
	"strings"

	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

// ResolveRecipients maps a record owner to manager addresses for a
// vertical. Missing owner, lookup failure, or an empty hierarchy all
// fall back to the default escalation address; the caller always gets
// at least one recipient and never an error.
func ResolveRecipients(
	ctx context.Context,
	hierarchy ports.HierarchyDirectory,
	owner string,
	vertical string,
	defaultAddress string,
	logger *slog.Logger,
) []string {
	log := ResolveLogger(logger)
	fallback := []string{entities.NormalizeEmail(defaultAddress)}

	owner = strings.TrimSpace(owner)
	if owner == "" {
		return fallback
	}

	addresses, err := hierarchy.ManagerEmails(ctx, owner, strings.TrimSpace(vertical))
	if err != nil {
		log.Warn("hierarchy lookup failed, using default escalation address",
			"event", "sla_hierarchy_lookup_failed",
			"module", "crm-compliance/sla-engine",
			"layer", "application",
			"owner", owner,
			"vertical", vertical,
			"error", err.Error(),
		)
		return fallback
	}

	recipients := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		normalized := entities.NormalizeEmail(address)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		recipients = append(recipients, normalized)
	}
	if len(recipients) == 0 {
		return fallback
	}
	return recipients
}
