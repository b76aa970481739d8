package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	domainerrors "stagewatch/contexts/crm-compliance/sla-engine/domain/errors"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateRule(ctx context.Context, rule entities.Rule) error {
	row := ruleModelFromEntity(rule)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidRuleInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetRule(ctx context.Context, ruleID string) (entities.Rule, error) {
	var row ruleModel
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", strings.TrimSpace(ruleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Rule{}, domainerrors.ErrRuleNotFound
		}
		return entities.Rule{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRules(ctx context.Context) ([]entities.Rule, error) {
	var rows []ruleModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return rulesFromModels(rows), nil
}

func (r *Repository) ListActiveRules(ctx context.Context) ([]entities.Rule, error) {
	var rows []ruleModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return rulesFromModels(rows), nil
}

func (r *Repository) SetRuleActive(ctx context.Context, ruleID string, active bool, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ruleModel{}).
		Where("rule_id = ?", strings.TrimSpace(ruleID)).
		Updates(map[string]any{
			"active":     active,
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRuleNotFound
	}
	return nil
}

// ListRecords reads the external CRM tables. Leads and opportunities
// keep their stage in differently named columns, so the query is built
// per entity type.
func (r *Repository) ListRecords(ctx context.Context, filter ports.RecordFilter) ([]entities.MonitoredRecord, error) {
	switch filter.EntityType {
	case entities.EntityTypeLead:
		var rows []leadModel
		tx := r.db.WithContext(ctx).Model(&leadModel{})
		if filter.Vertical != "" {
			tx = tx.Where("vertical = ?", filter.Vertical)
		}
		if len(filter.Stages) > 0 {
			tx = tx.Where("status IN ?", filter.Stages)
		}
		if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		items := make([]entities.MonitoredRecord, 0, len(rows))
		for _, row := range rows {
			items = append(items, row.toEntity())
		}
		return items, nil
	case entities.EntityTypeOpportunity:
		var rows []opportunityModel
		tx := r.db.WithContext(ctx).Model(&opportunityModel{})
		if filter.Vertical != "" {
			tx = tx.Where("vertical = ?", filter.Vertical)
		}
		if len(filter.Stages) > 0 {
			tx = tx.Where("stage IN ?", filter.Stages)
		}
		if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		items := make([]entities.MonitoredRecord, 0, len(rows))
		for _, row := range rows {
			items = append(items, row.toEntity())
		}
		return items, nil
	default:
		return nil, domainerrors.ErrInvalidRuleInput
	}
}

func (r *Repository) FindConversionChild(ctx context.Context, leadID string) (entities.ConversionChild, bool, error) {
	var row opportunityModel
	err := r.db.WithContext(ctx).
		Where("source_lead_id = ?", strings.TrimSpace(leadID)).
		Order("created_at ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ConversionChild{}, false, nil
		}
		return entities.ConversionChild{}, false, err
	}
	return entities.ConversionChild{
		RecordID:  row.RecordID,
		CreatedAt: row.CreatedAt.UTC(),
	}, true, nil
}

// AppendBreach inserts one breach event, deduplicated on the event's
// dedup key by the unique index. A conflicting insert reports false,
// nil so repeated scans stay no-ops under concurrent detectors.
func (r *Repository) AppendBreach(ctx context.Context, event entities.BreachEvent) (bool, error) {
	row := breachModelFromEntity(event)
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		if isUniqueViolation(createResult.Error) {
			return false, nil
		}
		return false, createResult.Error
	}
	return createResult.RowsAffected > 0, nil
}

func (r *Repository) ListBreachesSince(ctx context.Context, since time.Time) ([]entities.BreachEvent, error) {
	var rows []breachModel
	if err := r.db.WithContext(ctx).
		Where("detected_at >= ?", since.UTC()).
		Order("recipient ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.BreachEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ManagerEmails(ctx context.Context, owner string, vertical string) ([]string, error) {
	var rows []hierarchyModel
	if err := r.db.WithContext(ctx).
		Where("owner = ? AND vertical = ?", strings.TrimSpace(owner), strings.TrimSpace(vertical)).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		emails = append(emails, row.ManagerEmail)
	}
	return emails, nil
}

func (r *Repository) Notify(ctx context.Context, alert entities.AlertNotification) error {
	row := notificationModel{
		NotificationID: strings.TrimSpace(alert.NotificationID),
		ForUser:        strings.TrimSpace(alert.ForUser),
		EntityType:     string(alert.EntityType),
		RecordID:       strings.TrimSpace(alert.RecordID),
		Subject:        alert.Subject,
		Body:           alert.Body,
		CreatedAt:      alert.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

type ruleModel struct {
	RuleID          string    `gorm:"column:rule_id;primaryKey"`
	Vertical        string    `gorm:"column:vertical"`
	AppliesTo       string    `gorm:"column:applies_to"`
	StageField      string    `gorm:"column:stage_field"`
	Stages          []string  `gorm:"column:stages;type:text[]"`
	MaxHoursAllowed float64   `gorm:"column:max_hours_allowed"`
	Active          bool      `gorm:"column:active"`
	NotifyTo        []string  `gorm:"column:notify_to;type:text[]"`
	Message         string    `gorm:"column:message"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (ruleModel) TableName() string {
	return "sla_rules"
}

func ruleModelFromEntity(item entities.Rule) ruleModel {
	return ruleModel{
		RuleID:          strings.TrimSpace(item.RuleID),
		Vertical:        strings.TrimSpace(item.Vertical),
		AppliesTo:       string(item.AppliesTo),
		StageField:      strings.TrimSpace(item.StageField),
		Stages:          copyOrEmpty(item.Stages),
		MaxHoursAllowed: item.MaxHoursAllowed,
		Active:          item.Active,
		NotifyTo:        copyOrEmpty(item.NotifyTo),
		Message:         strings.TrimSpace(item.Message),
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func (m ruleModel) toEntity() entities.Rule {
	return entities.Rule{
		RuleID:          m.RuleID,
		Vertical:        m.Vertical,
		AppliesTo:       entities.EntityType(m.AppliesTo),
		StageField:      m.StageField,
		Stages:          copyOrEmpty(m.Stages),
		MaxHoursAllowed: m.MaxHoursAllowed,
		Active:          m.Active,
		NotifyTo:        copyOrEmpty(m.NotifyTo),
		Message:         m.Message,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func rulesFromModels(rows []ruleModel) []entities.Rule {
	items := make([]entities.Rule, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type breachModel struct {
	BreachID      string    `gorm:"column:breach_id;primaryKey"`
	DedupKey      string    `gorm:"column:dedup_key;uniqueIndex"`
	Vertical      string    `gorm:"column:vertical"`
	EntityType    string    `gorm:"column:entity_type"`
	RecordID      string    `gorm:"column:record_id"`
	RecordOwner   string    `gorm:"column:record_owner"`
	Stage         string    `gorm:"column:stage"`
	HoursExceeded float64   `gorm:"column:hours_exceeded"`
	DwellStartAt  time.Time `gorm:"column:dwell_started_at"`
	DetectedAt    time.Time `gorm:"column:detected_at"`
	Recipient     string    `gorm:"column:recipient"`
	Message       string    `gorm:"column:message"`
}

func (breachModel) TableName() string {
	return "sla_breach_log"
}

func breachModelFromEntity(item entities.BreachEvent) breachModel {
	return breachModel{
		BreachID:      strings.TrimSpace(item.BreachID),
		DedupKey:      item.DedupKey(),
		Vertical:      strings.TrimSpace(item.Vertical),
		EntityType:    string(item.EntityType),
		RecordID:      strings.TrimSpace(item.RecordID),
		RecordOwner:   strings.TrimSpace(item.RecordOwner),
		Stage:         strings.TrimSpace(item.Stage),
		HoursExceeded: item.HoursExceeded,
		DwellStartAt:  item.DwellStartAt.UTC(),
		DetectedAt:    item.DetectedAt.UTC(),
		Recipient:     entities.NormalizeEmail(item.Recipient),
		Message:       item.Message,
	}
}

func (m breachModel) toEntity() entities.BreachEvent {
	return entities.BreachEvent{
		BreachID:      m.BreachID,
		Vertical:      m.Vertical,
		EntityType:    entities.EntityType(m.EntityType),
		RecordID:      m.RecordID,
		RecordOwner:   m.RecordOwner,
		Stage:         m.Stage,
		HoursExceeded: m.HoursExceeded,
		DwellStartAt:  m.DwellStartAt.UTC(),
		DetectedAt:    m.DetectedAt.UTC(),
		Recipient:     m.Recipient,
		Message:       m.Message,
	}
}

type leadModel struct {
	RecordID          string     `gorm:"column:record_id;primaryKey"`
	Owner             string     `gorm:"column:owner"`
	Vertical          string     `gorm:"column:vertical"`
	Status            string     `gorm:"column:status"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	LastStageChangeOn *time.Time `gorm:"column:last_stage_change_on"`
	ModifiedAt        time.Time  `gorm:"column:modified_at"`
}

func (leadModel) TableName() string {
	return "leads"
}

func (m leadModel) toEntity() entities.MonitoredRecord {
	return entities.MonitoredRecord{
		EntityType:        entities.EntityTypeLead,
		RecordID:          m.RecordID,
		Owner:             m.Owner,
		Vertical:          m.Vertical,
		Stage:             m.Status,
		CreatedAt:         m.CreatedAt.UTC(),
		LastStageChangeOn: derefTime(m.LastStageChangeOn),
		ModifiedAt:        m.ModifiedAt.UTC(),
	}
}

type opportunityModel struct {
	RecordID          string     `gorm:"column:record_id;primaryKey"`
	SourceLeadID      string     `gorm:"column:source_lead_id"`
	Owner             string     `gorm:"column:owner"`
	Vertical          string     `gorm:"column:vertical"`
	Stage             string     `gorm:"column:stage"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	LastStageChangeOn *time.Time `gorm:"column:last_stage_change_on"`
	ModifiedAt        time.Time  `gorm:"column:modified_at"`
}

func (opportunityModel) TableName() string {
	return "opportunities"
}

func (m opportunityModel) toEntity() entities.MonitoredRecord {
	return entities.MonitoredRecord{
		EntityType:        entities.EntityTypeOpportunity,
		RecordID:          m.RecordID,
		Owner:             m.Owner,
		Vertical:          m.Vertical,
		Stage:             m.Stage,
		CreatedAt:         m.CreatedAt.UTC(),
		LastStageChangeOn: derefTime(m.LastStageChangeOn),
		ModifiedAt:        m.ModifiedAt.UTC(),
	}
}

type hierarchyModel struct {
	EntryID      string `gorm:"column:entry_id;primaryKey"`
	Owner        string `gorm:"column:owner"`
	Vertical     string `gorm:"column:vertical"`
	ManagerEmail string `gorm:"column:manager_email"`
}

func (hierarchyModel) TableName() string {
	return "crm_reporting_hierarchy"
}

type notificationModel struct {
	NotificationID string    `gorm:"column:notification_id;primaryKey"`
	ForUser        string    `gorm:"column:for_user"`
	EntityType     string    `gorm:"column:entity_type"`
	RecordID       string    `gorm:"column:record_id"`
	Subject        string    `gorm:"column:subject"`
	Body           string    `gorm:"column:body"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (notificationModel) TableName() string {
	return "notification_log"
}

func copyOrEmpty(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return append([]string(nil), items...)
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return value.UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
