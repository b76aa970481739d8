package ports

import (
	"context"
	"time"

	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
)

type RuleRepository interface {
	CreateRule(ctx context.Context, rule entities.Rule) error
	GetRule(ctx context.Context, ruleID string) (entities.Rule, error)
	ListRules(ctx context.Context) ([]entities.Rule, error)
	ListActiveRules(ctx context.Context) ([]entities.Rule, error)
	SetRuleActive(ctx context.Context, ruleID string, active bool, updatedAt time.Time) error
}

// RecordFilter scopes a record-store query to one rule's population.
type RecordFilter struct {
	EntityType entities.EntityType
	Vertical   string
	Stages     []string
}

// RecordDirectory is the external record store. The engine only reads
// from it; the single timestamp it owns is written on the store's own
// save path via the stage-change stamp.
type RecordDirectory interface {
	ListRecords(ctx context.Context, filter RecordFilter) ([]entities.MonitoredRecord, error)
	FindConversionChild(ctx context.Context, leadID string) (entities.ConversionChild, bool, error)
}

// BreachLog is the append-only breach event store. AppendBreach is a
// compare-and-insert on the event's dedup key: it reports false, nil
// when an event for the same key already exists.
type BreachLog interface {
	AppendBreach(ctx context.Context, event entities.BreachEvent) (bool, error)
	ListBreachesSince(ctx context.Context, since time.Time) ([]entities.BreachEvent, error)
}

// HierarchyDirectory resolves a record owner to reporting-manager
// addresses within a vertical. Zero rows is an expected outcome.
type HierarchyDirectory interface {
	ManagerEmails(ctx context.Context, owner string, vertical string) ([]string, error)
}

// MailSender delivers one HTML message. Fire-and-forget: no delivery
// receipt is consumed.
type MailSender interface {
	Send(ctx context.Context, recipients []string, subject string, htmlBody string) error
}

type AlertNotifier interface {
	Notify(ctx context.Context, alert entities.AlertNotification) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
