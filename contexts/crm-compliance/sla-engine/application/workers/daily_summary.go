package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	application "stagewatch/contexts/crm-compliance/sla-engine/application"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

var emailValidator = validator.New()

// DailySummary consolidates the trailing 24 hours of breach events into
// one digest mail per resolved manager. Events whose recipient is
// missing or not a syntactically valid address are counted as skipped,
// never treated as an error.
type DailySummary struct {
	Breaches    ports.BreachLog
	Mail        ports.MailSender
	Clock       ports.Clock
	BaseURL     string
	Lookback    time.Duration
	SendTimeout time.Duration
	Logger      *slog.Logger
}

// RunOnce returns the total number of breach events considered,
// including skipped ones, for observability.
func (j DailySummary) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(j.Logger)
	now := j.Clock.Now().UTC()

	lookback := j.Lookback
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}

	events, err := j.Breaches.ListBreachesSince(ctx, now.Add(-lookback))
	if err != nil {
		logger.Error("breach window query failed",
			"event", "sla_summary_query_failed",
			"module", "crm-compliance/sla-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	grouped := make(map[string][]entities.BreachEvent)
	skipped := 0
	for _, event := range events {
		recipient := entities.NormalizeEmail(event.Recipient)
		if recipient == "" || emailValidator.Var(recipient, "email") != nil {
			skipped++
			continue
		}
		grouped[recipient] = append(grouped[recipient], event)
	}

	recipients := make([]string, 0, len(grouped))
	for recipient := range grouped {
		recipients = append(recipients, recipient)
	}
	sort.Strings(recipients)

	sent := 0
	for _, recipient := range recipients {
		batch := grouped[recipient]
		if err := j.sendDigest(ctx, recipient, batch); err != nil {
			logger.Error("digest send failed",
				"event", "sla_digest_send_failed",
				"module", "crm-compliance/sla-engine",
				"layer", "worker",
				"recipient", recipient,
				"row_count", len(batch),
				"error", err.Error(),
			)
			continue
		}
		sent++
	}

	logger.Info("sla daily summary completed",
		"event", "sla_daily_summary_completed",
		"module", "crm-compliance/sla-engine",
		"layer", "worker",
		"considered_count", len(events),
		"skipped_count", skipped,
		"digest_count", sent,
	)
	return len(events), nil
}

func (j DailySummary) sendDigest(ctx context.Context, recipient string, events []entities.BreachEvent) error {
	body, err := renderDigest(j.BaseURL, events)
	if err != nil {
		return err
	}

	sendCtx := ctx
	if j.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, j.SendTimeout)
		defer cancel()
	}

	subject := fmt.Sprintf("Daily SLA Breach Summary: %d Records", len(events))
	return j.Mail.Send(sendCtx, []string{recipient}, subject, body)
}
