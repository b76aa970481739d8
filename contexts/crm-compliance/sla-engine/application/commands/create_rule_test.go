package commands

import (
	"context"
	"errors"
	"testing"

	"stagewatch/contexts/crm-compliance/sla-engine/adapters/memory"
	domainerrors "stagewatch/contexts/crm-compliance/sla-engine/domain/errors"
)

func TestCreateRuleNormalizesInput(t *testing.T) {
	store := memory.NewStore(nil, nil)
	uc := CreateRuleUseCase{Rules: store, Clock: fixedClock{now: stampNow}, IDGen: store}

	rule, err := uc.Execute(context.Background(), CreateRuleCommand{
		Vertical:        "  Permanent Staffing ",
		AppliesTo:       "Lead",
		Stages:          []string{"New", " ", "Contacted"},
		MaxHoursAllowed: 24,
		Active:          true,
		NotifyTo:        []string{" VP@Example.com ", ""},
		Message:         " Lead stuck beyond SLA ",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rule.RuleID == "" {
		t.Fatal("expected a generated rule id")
	}
	if rule.Vertical != "Permanent Staffing" || rule.StageField != "status" {
		t.Fatalf("unexpected normalization: %+v", rule)
	}
	if len(rule.NotifyTo) != 1 || rule.NotifyTo[0] != "vp@example.com" {
		t.Fatalf("unexpected notify list: %v", rule.NotifyTo)
	}

	stored, err := store.GetRule(context.Background(), rule.RuleID)
	if err != nil {
		t.Fatalf("stored rule lookup failed: %v", err)
	}
	if stored.Message != "Lead stuck beyond SLA" {
		t.Fatalf("unexpected stored message: %q", stored.Message)
	}
}

func TestCreateRuleRejectsInvalidInput(t *testing.T) {
	store := memory.NewStore(nil, nil)
	uc := CreateRuleUseCase{Rules: store, Clock: fixedClock{now: stampNow}, IDGen: store}

	cases := []CreateRuleCommand{
		{Vertical: "", AppliesTo: "Lead", Stages: []string{"New"}, MaxHoursAllowed: 24},
		{Vertical: "Permanent Staffing", AppliesTo: "Account", Stages: []string{"New"}, MaxHoursAllowed: 24},
		{Vertical: "Permanent Staffing", AppliesTo: "Lead", Stages: []string{" "}, MaxHoursAllowed: 24},
		{Vertical: "Permanent Staffing", AppliesTo: "Lead", Stages: []string{"New"}, MaxHoursAllowed: 0},
	}
	for i, cmd := range cases {
		if _, err := uc.Execute(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidRuleInput) {
			t.Fatalf("case %d: expected ErrInvalidRuleInput, got %v", i, err)
		}
	}
}
