package entities

import (
	"testing"
	"time"
)

func TestBreachEventDedupKeyNormalizesRecipient(t *testing.T) {
	base := BreachEvent{
		EntityType: EntityTypeLead,
		RecordID:   "lead-1",
		Stage:      "New",
		Recipient:  "MGR@X.COM ",
	}
	twin := base
	twin.Recipient = "mgr@x.com"

	if base.DedupKey() != twin.DedupKey() {
		t.Fatalf("expected case-insensitive dedup keys, got %q vs %q", base.DedupKey(), twin.DedupKey())
	}

	other := base
	other.Recipient = "other@x.com"
	if base.DedupKey() == other.DedupKey() {
		t.Fatal("expected distinct recipients to yield distinct keys")
	}
}

func TestDwellStartFallsBackToCreation(t *testing.T) {
	created := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	staged := created.Add(10 * time.Hour)

	record := MonitoredRecord{CreatedAt: created}
	if !record.DwellStart().Equal(created) {
		t.Fatalf("expected creation fallback, got %v", record.DwellStart())
	}

	record.LastStageChangeOn = staged
	if !record.DwellStart().Equal(staged) {
		t.Fatalf("expected stage-change baseline, got %v", record.DwellStart())
	}
	if got := record.DwellHours(staged.Add(6 * time.Hour)); got != 6 {
		t.Fatalf("expected 6 dwell hours, got %f", got)
	}
}

func TestVerticalMapResolvesWithIdentityFallback(t *testing.T) {
	m := DefaultVerticalMap()

	if got := m.Resolve("Permanent Staffing", EntityTypeLead); got != "Permanent" {
		t.Fatalf("expected mapped lead vocabulary, got %q", got)
	}
	if got := m.Resolve("Permanent Staffing", EntityTypeOpportunity); got != "Permanent Staffing" {
		t.Fatalf("expected identity for opportunities, got %q", got)
	}
	if got := m.Resolve(" Unknown Vertical ", EntityTypeLead); got != "Unknown Vertical" {
		t.Fatalf("expected trimmed identity for unknown verticals, got %q", got)
	}
}

func TestRuleValidateBasics(t *testing.T) {
	valid := Rule{
		Vertical:        "Permanent Staffing",
		AppliesTo:       EntityTypeLead,
		Stages:          []string{"New"},
		MaxHoursAllowed: 24,
	}
	if !valid.ValidateBasics() {
		t.Fatal("expected valid rule to pass")
	}

	for name, mutate := range map[string]func(*Rule){
		"blank vertical":     func(r *Rule) { r.Vertical = " " },
		"unknown type":       func(r *Rule) { r.AppliesTo = "Account" },
		"blank stages":       func(r *Rule) { r.Stages = []string{"", "  "} },
		"zero threshold":     func(r *Rule) { r.MaxHoursAllowed = 0 },
		"negative threshold": func(r *Rule) { r.MaxHoursAllowed = -5 },
	} {
		rule := valid
		mutate(&rule)
		if rule.ValidateBasics() {
			t.Fatalf("%s: expected validation to fail", name)
		}
	}
}

func TestRuleMatchesStageTrimsInput(t *testing.T) {
	rule := Rule{Stages: []string{"New", " Contacted "}}

	if !rule.MatchesStage(" New ") || !rule.MatchesStage("Contacted") {
		t.Fatal("expected trimmed stage matching")
	}
	if rule.MatchesStage("Qualified") {
		t.Fatal("expected non-listed stage to miss")
	}
}

func TestEntityTypeStageField(t *testing.T) {
	if EntityTypeLead.StageField() != "status" {
		t.Fatalf("unexpected lead stage field: %s", EntityTypeLead.StageField())
	}
	if EntityTypeOpportunity.StageField() != "stage" {
		t.Fatalf("unexpected opportunity stage field: %s", EntityTypeOpportunity.StageField())
	}
}
