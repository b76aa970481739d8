package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateRuleRequest struct {
	Vertical        string   `json:"vertical"`
	AppliesTo       string   `json:"applies_to"`
	Stages          []string `json:"stages"`
	MaxHoursAllowed float64  `json:"max_hours_allowed"`
	Active          bool     `json:"active"`
	NotifyTo        []string `json:"notify_to"`
	Message         string   `json:"message"`
}

type RuleDTO struct {
	RuleID          string   `json:"rule_id"`
	Vertical        string   `json:"vertical"`
	AppliesTo       string   `json:"applies_to"`
	StageField      string   `json:"stage_field"`
	Stages          []string `json:"stages"`
	MaxHoursAllowed float64  `json:"max_hours_allowed"`
	Active          bool     `json:"active"`
	NotifyTo        []string `json:"notify_to"`
	Message         string   `json:"message"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type CreateRuleResponse struct {
	Rule RuleDTO `json:"rule"`
}

type ListRulesResponse struct {
	Items []RuleDTO `json:"items"`
}

type GetRuleResponse struct {
	Rule RuleDTO `json:"rule"`
}

type BreachEventDTO struct {
	BreachID      string  `json:"breach_id"`
	Vertical      string  `json:"vertical"`
	EntityType    string  `json:"entity_type"`
	RecordID      string  `json:"record_id"`
	RecordOwner   string  `json:"record_owner"`
	Stage         string  `json:"stage"`
	HoursExceeded float64 `json:"hours_exceeded"`
	DwellStartAt  string  `json:"dwell_started_at"`
	DetectedAt    string  `json:"detected_at"`
	Recipient     string  `json:"recipient"`
	Message       string  `json:"message"`
}

type ListBreachesResponse struct {
	Items []BreachEventDTO `json:"items"`
}

type RunDetectorResponse struct {
	BreachCount int `json:"breach_count"`
}

type RunSummaryResponse struct {
	ConsideredCount int `json:"considered_count"`
}

type RecordStateDTO struct {
	EntityType        string `json:"entity_type"`
	RecordID          string `json:"record_id"`
	Owner             string `json:"owner"`
	Vertical          string `json:"vertical"`
	Stage             string `json:"stage"`
	CreatedAt         string `json:"created_at"`
	LastStageChangeOn string `json:"last_stage_change_on"`
	ModifiedAt        string `json:"modified_at"`
}

type StageChangeRequest struct {
	Previous *RecordStateDTO `json:"previous"`
	Next     RecordStateDTO  `json:"next"`
}

type StageChangeResponse struct {
	Record RecordStateDTO `json:"record"`
}
