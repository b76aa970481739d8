package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "stagewatch/contexts/crm-compliance/sla-engine/application"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

const stageConverted = "Converted"

// BreachDetector is the hourly scan: for each active rule it walks the
// matching record population, measures dwell time against the rule's
// threshold, and appends one breach event per (record, stage, recipient)
// occurrence. The append is a compare-and-insert on the dedup key, so
// re-running the scan over unchanged data creates nothing new.
type BreachDetector struct {
	Rules            ports.RuleRepository
	Records          ports.RecordDirectory
	Breaches         ports.BreachLog
	Hierarchy        ports.HierarchyDirectory
	Alerts           ports.AlertNotifier
	Mail             ports.MailSender
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	VerticalMap      entities.VerticalMap
	DefaultRecipient string
	NotifyTimeout    time.Duration
	Logger           *slog.Logger
}

// RunOnce scans every active rule and returns the number of breach
// events created. Per-record failures are logged and skipped; only a
// failure to load the rule set aborts the run.
func (j BreachDetector) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(j.Logger)
	now := j.Clock.Now().UTC()

	rules, err := j.Rules.ListActiveRules(ctx)
	if err != nil {
		logger.Error("active rule load failed",
			"event", "sla_rule_load_failed",
			"module", "crm-compliance/sla-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	created := 0
	for _, rule := range rules {
		if !rule.ValidateBasics() {
			logger.Warn("skipping malformed sla rule",
				"event", "sla_rule_malformed",
				"module", "crm-compliance/sla-engine",
				"layer", "worker",
				"rule_id", rule.RuleID,
				"vertical", rule.Vertical,
				"max_hours_allowed", rule.MaxHoursAllowed,
			)
			continue
		}
		created += j.scanRule(ctx, rule, now, logger)
	}

	if created > 0 {
		logger.Info("sla breach scan completed",
			"event", "sla_breach_scan_completed",
			"module", "crm-compliance/sla-engine",
			"layer", "worker",
			"breach_count", created,
			"rule_count", len(rules),
		)
	}
	return created, nil
}

func (j BreachDetector) scanRule(ctx context.Context, rule entities.Rule, now time.Time, logger *slog.Logger) int {
	recordVertical := j.VerticalMap.Resolve(rule.Vertical, rule.AppliesTo)

	records, err := j.Records.ListRecords(ctx, ports.RecordFilter{
		EntityType: rule.AppliesTo,
		Vertical:   recordVertical,
		Stages:     rule.MatchStages(),
	})
	if err != nil {
		logger.Error("record population query failed",
			"event", "sla_record_query_failed",
			"module", "crm-compliance/sla-engine",
			"layer", "worker",
			"rule_id", rule.RuleID,
			"entity_type", string(rule.AppliesTo),
			"vertical", recordVertical,
			"error", err.Error(),
		)
		return 0
	}

	created := 0
	for _, record := range records {
		created += j.evaluateRecord(ctx, rule, record, recordVertical, now, logger)
	}
	return created
}

// evaluateRecord is one independent unit of work: a failure here is
// logged and must not disturb the outcome of any other record.
func (j BreachDetector) evaluateRecord(
	ctx context.Context,
	rule entities.Rule,
	record entities.MonitoredRecord,
	recordVertical string,
	now time.Time,
	logger *slog.Logger,
) int {
	dwellHours := record.DwellHours(now)
	if dwellHours <= rule.MaxHoursAllowed {
		return 0
	}

	if rule.AppliesTo == entities.EntityTypeLead && record.Stage == stageConverted {
		completed, err := j.conversionCompletedInWindow(ctx, rule, record)
		if err != nil {
			logger.Error("conversion child lookup failed",
				"event", "sla_conversion_lookup_failed",
				"module", "crm-compliance/sla-engine",
				"layer", "worker",
				"rule_id", rule.RuleID,
				"record_id", record.RecordID,
				"error", err.Error(),
			)
			return 0
		}
		if completed {
			return 0
		}
	}

	hoursExceeded := dwellHours - rule.MaxHoursAllowed
	recipients := application.ResolveRecipients(ctx, j.Hierarchy, record.Owner, recordVertical, j.DefaultRecipient, logger)

	created := 0
	for _, recipient := range recipients {
		breachID, err := j.IDGen.NewID(ctx)
		if err != nil {
			logger.Error("breach id generation failed",
				"event", "sla_breach_id_failed",
				"module", "crm-compliance/sla-engine",
				"layer", "worker",
				"record_id", record.RecordID,
				"error", err.Error(),
			)
			continue
		}

		inserted, err := j.Breaches.AppendBreach(ctx, entities.BreachEvent{
			BreachID:      breachID,
			Vertical:      recordVertical,
			EntityType:    rule.AppliesTo,
			RecordID:      record.RecordID,
			RecordOwner:   record.Owner,
			Stage:         record.Stage,
			HoursExceeded: hoursExceeded,
			DwellStartAt:  record.DwellStart(),
			DetectedAt:    now,
			Recipient:     recipient,
			Message:       rule.Message,
		})
		if err != nil {
			logger.Error("breach event insert failed",
				"event", "sla_breach_insert_failed",
				"module", "crm-compliance/sla-engine",
				"layer", "worker",
				"record_id", record.RecordID,
				"stage", record.Stage,
				"recipient", recipient,
				"error", err.Error(),
			)
			continue
		}
		if inserted {
			created++
		}
	}

	if created > 0 {
		j.notifyBreach(ctx, rule, record, dwellHours, hoursExceeded, logger)
	}
	return created
}

// conversionCompletedInWindow reports whether a converted lead's child
// opportunity was created inside the allowed window. When it was, the
// transition completed on time and no breach is recorded even though
// "now" is past the deadline.
func (j BreachDetector) conversionCompletedInWindow(
	ctx context.Context,
	rule entities.Rule,
	record entities.MonitoredRecord,
) (bool, error) {
	child, found, err := j.Records.FindConversionChild(ctx, record.RecordID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	elapsed := child.CreatedAt.Sub(record.DwellStart()).Hours()
	return elapsed <= rule.MaxHoursAllowed, nil
}

// notifyBreach raises the inline owner alert and mails any extra
// configured recipients. Both are best-effort: the breach event is
// already durable, so delivery failures are logged and swallowed.
func (j BreachDetector) notifyBreach(
	ctx context.Context,
	rule entities.Rule,
	record entities.MonitoredRecord,
	dwellHours float64,
	hoursExceeded float64,
	logger *slog.Logger,
) {
	notifyCtx := ctx
	if j.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(ctx, j.NotifyTimeout)
		defer cancel()
	}

	subject := fmt.Sprintf("SLA Breach Alert: %s", record.RecordID)
	body := fmt.Sprintf(
		"SLA Breach: Record is in stage '%s' for %.1f hours (exceeded by %.1f hours).",
		record.Stage, dwellHours, hoursExceeded,
	)

	notificationID, err := j.IDGen.NewID(notifyCtx)
	if err == nil {
		err = j.Alerts.Notify(notifyCtx, entities.AlertNotification{
			NotificationID: notificationID,
			ForUser:        record.Owner,
			EntityType:     record.EntityType,
			RecordID:       record.RecordID,
			Subject:        subject,
			Body:           body,
			CreatedAt:      j.Clock.Now().UTC(),
		})
	}
	if err != nil {
		logger.Warn("inline breach alert failed",
			"event", "sla_inline_alert_failed",
			"module", "crm-compliance/sla-engine",
			"layer", "worker",
			"record_id", record.RecordID,
			"owner", record.Owner,
			"error", err.Error(),
		)
	}

	if len(rule.NotifyTo) == 0 || j.Mail == nil {
		return
	}
	if err := j.Mail.Send(notifyCtx, rule.NotifyTo, subject, "<p>"+body+"</p>"); err != nil {
		logger.Warn("extra recipient mail failed",
			"event", "sla_extra_notify_failed",
			"module", "crm-compliance/sla-engine",
			"layer", "worker",
			"record_id", record.RecordID,
			"recipient_count", len(rule.NotifyTo),
			"error", err.Error(),
		)
	}
}
