package entities

import (
	"strings"
	"time"
)

type EntityType string

const (
	EntityTypeLead        EntityType = "Lead"
	EntityTypeOpportunity EntityType = "Opportunity"
)

// StageField is the record field a rule watches: leads track "status",
// opportunities track "stage".
func (t EntityType) StageField() string {
	if t == EntityTypeOpportunity {
		return "stage"
	}
	return "status"
}

func IsSupportedEntityType(value EntityType) bool {
	switch value {
	case EntityTypeLead, EntityTypeOpportunity:
		return true
	default:
		return false
	}
}

// Rule is an SLA dwell-time rule. Rules are administrator-owned
// configuration; the detection engine only ever reads them.
type Rule struct {
	RuleID          string
	Vertical        string
	AppliesTo       EntityType
	StageField      string
	Stages          []string
	MaxHoursAllowed float64
	Active          bool
	NotifyTo        []string
	Message         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r Rule) ValidateBasics() bool {
	return strings.TrimSpace(r.Vertical) != "" &&
		IsSupportedEntityType(r.AppliesTo) &&
		len(r.MatchStages()) > 0 &&
		r.MaxHoursAllowed > 0
}

// MatchStages returns the rule's stage predicate with blank values dropped.
func (r Rule) MatchStages() []string {
	stages := make([]string, 0, len(r.Stages))
	for _, stage := range r.Stages {
		if value := strings.TrimSpace(stage); value != "" {
			stages = append(stages, value)
		}
	}
	return stages
}

func (r Rule) MatchesStage(stage string) bool {
	for _, value := range r.MatchStages() {
		if value == strings.TrimSpace(stage) {
			return true
		}
	}
	return false
}
