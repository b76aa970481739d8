package workers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stagewatch/contexts/crm-compliance/sla-engine/adapters/memory"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
)

var summaryNow = time.Date(2026, time.March, 11, 7, 0, 0, 0, time.UTC)

func TestDailySummaryGroupsEventsPerRecipient(t *testing.T) {
	store := memory.NewStore(nil, nil)
	seedBreach(t, store, "lead-1", "mgr@x.com", summaryNow.Add(-2*time.Hour))
	seedBreach(t, store, "lead-2", "MGR@X.COM ", summaryNow.Add(-3*time.Hour))
	seedBreach(t, store, "lead-3", "not-an-email", summaryNow.Add(-4*time.Hour))

	mail := &recordingMailSender{}
	considered, err := newSummary(store, mail).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if considered != 3 {
		t.Fatalf("expected 3 considered events, got %d", considered)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 digest mail, got %d", len(mail.sent))
	}

	digest := mail.sent[0]
	if digest.recipients[0] != "mgr@x.com" {
		t.Fatalf("unexpected digest recipient: %v", digest.recipients)
	}
	if digest.subject != "Daily SLA Breach Summary: 2 Records" {
		t.Fatalf("unexpected subject: %s", digest.subject)
	}
	if !strings.Contains(digest.body, "lead-1") || !strings.Contains(digest.body, "lead-2") {
		t.Fatalf("digest body missing rows: %s", digest.body)
	}
	if strings.Contains(digest.body, "lead-3") {
		t.Fatalf("digest body contains skipped event: %s", digest.body)
	}
	if !strings.Contains(digest.body, "https://crm.example.com/app/lead/lead-1") {
		t.Fatalf("digest body missing record link: %s", digest.body)
	}
}

func TestDailySummarySendsNothingWithoutEvents(t *testing.T) {
	store := memory.NewStore(nil, nil)
	mail := &recordingMailSender{}

	considered, err := newSummary(store, mail).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if considered != 0 {
		t.Fatalf("expected 0 considered events, got %d", considered)
	}
	if len(mail.sent) != 0 {
		t.Fatalf("expected no mail, got %d", len(mail.sent))
	}
}

func TestDailySummaryIgnoresEventsOutsideLookback(t *testing.T) {
	store := memory.NewStore(nil, nil)
	seedBreach(t, store, "lead-old", "mgr@x.com", summaryNow.Add(-30*time.Hour))
	seedBreach(t, store, "lead-new", "mgr@x.com", summaryNow.Add(-1*time.Hour))

	mail := &recordingMailSender{}
	considered, err := newSummary(store, mail).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if considered != 1 {
		t.Fatalf("expected only the in-window event, got %d", considered)
	}
	if mail.sent[0].subject != "Daily SLA Breach Summary: 1 Records" {
		t.Fatalf("unexpected subject: %s", mail.sent[0].subject)
	}
}

func TestDailySummaryContinuesPastFailedDigest(t *testing.T) {
	store := memory.NewStore(nil, nil)
	seedBreach(t, store, "lead-1", "broken@x.com", summaryNow.Add(-2*time.Hour))
	seedBreach(t, store, "lead-2", "healthy@x.com", summaryNow.Add(-2*time.Hour))

	mail := &recordingMailSender{
		failFor: map[string]error{"broken@x.com": errors.New("smtp refused")},
	}
	considered, err := newSummary(store, mail).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if considered != 2 {
		t.Fatalf("expected 2 considered events, got %d", considered)
	}
	if len(mail.sent) != 1 || mail.sent[0].recipients[0] != "healthy@x.com" {
		t.Fatalf("expected the healthy recipient to still get a digest, got %+v", mail.sent)
	}
}

func newSummary(store *memory.Store, mail *recordingMailSender) DailySummary {
	return DailySummary{
		Breaches: store,
		Mail:     mail,
		Clock:    fixedClock{now: summaryNow},
		BaseURL:  "https://crm.example.com",
		Lookback: 24 * time.Hour,
	}
}

func seedBreach(t *testing.T, store *memory.Store, recordID string, recipient string, detectedAt time.Time) {
	t.Helper()
	inserted, err := store.AppendBreach(context.Background(), entities.BreachEvent{
		BreachID:      recordID + "|" + recipient,
		Vertical:      "Permanent",
		EntityType:    entities.EntityTypeLead,
		RecordID:      recordID,
		RecordOwner:   "user-7",
		Stage:         "New",
		HoursExceeded: 6,
		DwellStartAt:  detectedAt.Add(-30 * time.Hour),
		DetectedAt:    detectedAt,
		Recipient:     recipient,
		Message:       "Lead stuck beyond SLA",
	})
	if err != nil || !inserted {
		t.Fatalf("seed breach %s failed: inserted=%v err=%v", recordID, inserted, err)
	}
}
