package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	domainerrors "stagewatch/contexts/crm-compliance/sla-engine/domain/errors"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"

	"github.com/google/uuid"
)

// Store implements every sla-engine port in memory. It backs the
// in-memory module and the unit tests; the mutex mirrors the row-level
// consistency the postgres adapter gets from its unique index.
type Store struct {
	mu sync.RWMutex

	rules       map[string]entities.Rule
	records     map[string]entities.MonitoredRecord
	conversions map[string]entities.ConversionChild
	breaches    []entities.BreachEvent
	breachKeys  map[string]struct{}
	hierarchy   map[hierarchyKey][]string
	alerts      []entities.AlertNotification
}

type hierarchyKey struct {
	Owner    string
	Vertical string
}

func NewStore(seedRules []entities.Rule, seedRecords []entities.MonitoredRecord) *Store {
	rules := make(map[string]entities.Rule, len(seedRules))
	for _, rule := range seedRules {
		rules[rule.RuleID] = rule
	}
	records := make(map[string]entities.MonitoredRecord, len(seedRecords))
	for _, record := range seedRecords {
		records[recordKey(record.EntityType, record.RecordID)] = record
	}
	return &Store{
		rules:       rules,
		records:     records,
		conversions: make(map[string]entities.ConversionChild),
		breaches:    make([]entities.BreachEvent, 0),
		breachKeys:  make(map[string]struct{}),
		hierarchy:   make(map[hierarchyKey][]string),
		alerts:      make([]entities.AlertNotification, 0),
	}
}

func recordKey(entityType entities.EntityType, recordID string) string {
	return string(entityType) + "|" + strings.TrimSpace(recordID)
}

func (s *Store) CreateRule(_ context.Context, rule entities.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.RuleID]; exists {
		return domainerrors.ErrInvalidRuleInput
	}
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) GetRule(_ context.Context, ruleID string) (entities.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[strings.TrimSpace(ruleID)]
	if !exists {
		return entities.Rule{}, domainerrors.ErrRuleNotFound
	}
	return rule, nil
}

func (s *Store) ListRules(_ context.Context) ([]entities.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		items = append(items, rule)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListActiveRules(ctx context.Context) ([]entities.Rule, error) {
	items, err := s.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]entities.Rule, 0, len(items))
	for _, rule := range items {
		if rule.Active {
			active = append(active, rule)
		}
	}
	return active, nil
}

func (s *Store) SetRuleActive(_ context.Context, ruleID string, active bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, exists := s.rules[strings.TrimSpace(ruleID)]
	if !exists {
		return domainerrors.ErrRuleNotFound
	}
	rule.Active = active
	rule.UpdatedAt = updatedAt.UTC()
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) ListRecords(_ context.Context, filter ports.RecordFilter) ([]entities.MonitoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.MonitoredRecord, 0)
	for _, record := range s.records {
		if record.EntityType != filter.EntityType {
			continue
		}
		if filter.Vertical != "" && record.Vertical != filter.Vertical {
			continue
		}
		if len(filter.Stages) > 0 && !containsStage(filter.Stages, record.Stage) {
			continue
		}
		items = append(items, record)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) FindConversionChild(_ context.Context, leadID string) (entities.ConversionChild, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	child, exists := s.conversions[strings.TrimSpace(leadID)]
	if !exists {
		return entities.ConversionChild{}, false, nil
	}
	return child, true, nil
}

// AppendBreach is the memory twin of the postgres ON CONFLICT DO
// NOTHING insert: the check and the append happen under one lock.
func (s *Store) AppendBreach(_ context.Context, event entities.BreachEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := event.DedupKey()
	if _, exists := s.breachKeys[key]; exists {
		return false, nil
	}
	s.breachKeys[key] = struct{}{}
	s.breaches = append(s.breaches, event)
	return true, nil
}

func (s *Store) ListBreachesSince(_ context.Context, since time.Time) ([]entities.BreachEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.BreachEvent, 0)
	for _, event := range s.breaches {
		if event.DetectedAt.Before(since) {
			continue
		}
		items = append(items, event)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Recipient < items[j].Recipient
	})
	return items, nil
}

func (s *Store) ManagerEmails(_ context.Context, owner string, vertical string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := s.hierarchy[hierarchyKey{Owner: strings.TrimSpace(owner), Vertical: strings.TrimSpace(vertical)}]
	return append([]string(nil), emails...), nil
}

func (s *Store) Notify(_ context.Context, alert entities.AlertNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Seed helpers used by tests and the in-memory module.

func (s *Store) PutRecord(record entities.MonitoredRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey(record.EntityType, record.RecordID)] = record
}

func (s *Store) PutConversionChild(leadID string, child entities.ConversionChild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversions[strings.TrimSpace(leadID)] = child
}

func (s *Store) PutHierarchyEntry(owner string, vertical string, managerEmails ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hierarchyKey{Owner: strings.TrimSpace(owner), Vertical: strings.TrimSpace(vertical)}
	s.hierarchy[key] = append(s.hierarchy[key], managerEmails...)
}

func (s *Store) Alerts() []entities.AlertNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.AlertNotification(nil), s.alerts...)
}

func (s *Store) Breaches() []entities.BreachEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.BreachEvent(nil), s.breaches...)
}

func containsStage(stages []string, stage string) bool {
	for _, value := range stages {
		if value == stage {
			return true
		}
	}
	return false
}
