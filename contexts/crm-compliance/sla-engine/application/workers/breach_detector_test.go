package workers

import (
	"context"
	"math"
	"testing"
	"time"

	"stagewatch/contexts/crm-compliance/sla-engine/adapters/memory"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
)

var detectorNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestBreachDetectorRecordsOverdueRecord(t *testing.T) {
	store := memory.NewStore(
		[]entities.Rule{leadRule("rule-1", 24)},
		[]entities.MonitoredRecord{leadRecord("lead-1", "New", detectorNow.Add(-30*time.Hour))},
	)

	created, err := newDetector(store).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 breach event, got %d", created)
	}

	events := store.Breaches()
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	event := events[0]
	if event.RecordID != "lead-1" || event.Stage != "New" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if math.Abs(event.HoursExceeded-6) > 0.001 {
		t.Fatalf("expected 6 hours exceeded, got %f", event.HoursExceeded)
	}
	if event.Recipient != "crm-head@example.com" {
		t.Fatalf("expected default escalation recipient, got %s", event.Recipient)
	}
}

func TestBreachDetectorRerunIsIdempotent(t *testing.T) {
	store := memory.NewStore(
		[]entities.Rule{leadRule("rule-1", 24)},
		[]entities.MonitoredRecord{leadRecord("lead-1", "New", detectorNow.Add(-30*time.Hour))},
	)
	detector := newDetector(store)

	first, err := detector.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := detector.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if first != 1 || second != 0 {
		t.Fatalf("expected counts 1 then 0, got %d then %d", first, second)
	}
	if got := len(store.Breaches()); got != 1 {
		t.Fatalf("expected 1 stored event after rerun, got %d", got)
	}
}

func TestBreachDetectorIgnoresRecordWithinThreshold(t *testing.T) {
	store := memory.NewStore(
		[]entities.Rule{leadRule("rule-1", 24)},
		[]entities.MonitoredRecord{leadRecord("lead-1", "New", detectorNow.Add(-10*time.Hour))},
	)

	created, err := newDetector(store).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no breach events, got %d", created)
	}
}

func TestBreachDetectorSuppressesTimelyConvertedLead(t *testing.T) {
	rule := leadRule("rule-1", 24)
	rule.Stages = []string{"Converted"}

	record := leadRecord("lead-1", "Converted", detectorNow.Add(-48*time.Hour))
	store := memory.NewStore([]entities.Rule{rule}, []entities.MonitoredRecord{record})
	store.PutConversionChild("lead-1", entities.ConversionChild{
		RecordID:  "opp-1",
		CreatedAt: record.LastStageChangeOn.Add(5 * time.Hour),
	})

	created, err := newDetector(store).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected timely conversion to suppress breach, got %d events", created)
	}
}

func TestBreachDetectorFlagsLateConvertedLead(t *testing.T) {
	rule := leadRule("rule-1", 24)
	rule.Stages = []string{"Converted"}

	record := leadRecord("lead-1", "Converted", detectorNow.Add(-48*time.Hour))
	store := memory.NewStore([]entities.Rule{rule}, []entities.MonitoredRecord{record})
	store.PutConversionChild("lead-1", entities.ConversionChild{
		RecordID:  "opp-1",
		CreatedAt: record.LastStageChangeOn.Add(40 * time.Hour),
	})

	created, err := newDetector(store).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected late conversion to breach, got %d events", created)
	}
}

func TestBreachDetectorSkipsInactiveAndMalformedRules(t *testing.T) {
	inactive := leadRule("rule-inactive", 24)
	inactive.Active = false

	malformed := leadRule("rule-malformed", 0)

	store := memory.NewStore(
		[]entities.Rule{inactive, malformed},
		[]entities.MonitoredRecord{leadRecord("lead-1", "New", detectorNow.Add(-100*time.Hour))},
	)

	created, err := newDetector(store).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no events from inactive or malformed rules, got %d", created)
	}
}

func TestBreachDetectorResolvesVerticalVocabulary(t *testing.T) {
	rule := leadRule("rule-1", 24)
	rule.Vertical = "Permanent Staffing"

	matching := leadRecord("lead-perm", "New", detectorNow.Add(-30*time.Hour))
	matching.Vertical = "Permanent"
	other := leadRecord("lead-temp", "New", detectorNow.Add(-30*time.Hour))
	other.Vertical = "Temporary"

	store := memory.NewStore([]entities.Rule{rule}, []entities.MonitoredRecord{matching, other})

	created, err := newDetector(store).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected only the mapped vertical to match, got %d events", created)
	}
	if store.Breaches()[0].RecordID != "lead-perm" {
		t.Fatalf("expected lead-perm to breach, got %s", store.Breaches()[0].RecordID)
	}
}

func TestBreachDetectorEscalatesToEachManager(t *testing.T) {
	record := leadRecord("lead-1", "New", detectorNow.Add(-30*time.Hour))
	record.Owner = "user-7"

	store := memory.NewStore(
		[]entities.Rule{leadRule("rule-1", 24)},
		[]entities.MonitoredRecord{record},
	)
	store.PutHierarchyEntry("user-7", "Permanent", "Mgr.One@Example.com", "mgr.two@example.com", "mgr.one@example.com")

	created, err := newDetector(store).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected one event per distinct manager, got %d", created)
	}

	recipients := map[string]bool{}
	for _, event := range store.Breaches() {
		recipients[event.Recipient] = true
	}
	if !recipients["mgr.one@example.com"] || !recipients["mgr.two@example.com"] {
		t.Fatalf("unexpected recipients: %v", recipients)
	}

	if got := len(store.Alerts()); got != 1 {
		t.Fatalf("expected a single inline alert per record, got %d", got)
	}
}

func TestBreachDetectorMailsExtraRecipients(t *testing.T) {
	rule := leadRule("rule-1", 24)
	rule.NotifyTo = []string{"vp-sales@example.com"}

	store := memory.NewStore(
		[]entities.Rule{rule},
		[]entities.MonitoredRecord{leadRecord("lead-1", "New", detectorNow.Add(-30*time.Hour))},
	)
	mail := &recordingMailSender{}

	detector := newDetector(store)
	detector.Mail = mail

	if _, err := detector.RunOnce(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 mail to extra recipients, got %d", len(mail.sent))
	}
	if mail.sent[0].recipients[0] != "vp-sales@example.com" {
		t.Fatalf("unexpected mail recipient: %v", mail.sent[0].recipients)
	}
	if mail.sent[0].subject != "SLA Breach Alert: lead-1" {
		t.Fatalf("unexpected subject: %s", mail.sent[0].subject)
	}
}

func newDetector(store *memory.Store) BreachDetector {
	return BreachDetector{
		Rules:            store,
		Records:          store,
		Breaches:         store,
		Hierarchy:        store,
		Alerts:           store,
		Mail:             &recordingMailSender{},
		Clock:            fixedClock{now: detectorNow},
		IDGen:            store,
		VerticalMap:      entities.DefaultVerticalMap(),
		DefaultRecipient: "crm-head@example.com",
	}
}

func leadRule(ruleID string, maxHours float64) entities.Rule {
	return entities.Rule{
		RuleID:          ruleID,
		Vertical:        "Permanent Staffing",
		AppliesTo:       entities.EntityTypeLead,
		StageField:      entities.EntityTypeLead.StageField(),
		Stages:          []string{"New", "Contacted", "Converted"},
		MaxHoursAllowed: maxHours,
		Active:          true,
		Message:         "Lead stuck beyond SLA",
		CreatedAt:       detectorNow.Add(-72 * time.Hour),
	}
}

func leadRecord(recordID string, stage string, stageChangedAt time.Time) entities.MonitoredRecord {
	return entities.MonitoredRecord{
		EntityType:        entities.EntityTypeLead,
		RecordID:          recordID,
		Vertical:          "Permanent",
		Stage:             stage,
		CreatedAt:         stageChangedAt.Add(-24 * time.Hour),
		LastStageChangeOn: stageChangedAt,
	}
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

type sentMail struct {
	recipients []string
	subject    string
	body       string
}

type recordingMailSender struct {
	sent    []sentMail
	failFor map[string]error
}

func (m *recordingMailSender) Send(_ context.Context, recipients []string, subject string, htmlBody string) error {
	if m.failFor != nil && len(recipients) == 1 {
		if err, found := m.failFor[recipients[0]]; found {
			return err
		}
	}
	m.sent = append(m.sent, sentMail{recipients: recipients, subject: subject, body: htmlBody})
	return nil
}
