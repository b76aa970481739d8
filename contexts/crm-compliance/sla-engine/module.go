package slaengine

import (
	"context"
	"log/slog"
	"time"

	httpadapter "stagewatch/contexts/crm-compliance/sla-engine/adapters/http"
	"stagewatch/contexts/crm-compliance/sla-engine/adapters/memory"
	"stagewatch/contexts/crm-compliance/sla-engine/application/commands"
	"stagewatch/contexts/crm-compliance/sla-engine/application/queries"
	"stagewatch/contexts/crm-compliance/sla-engine/application/workers"
	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
	"stagewatch/contexts/crm-compliance/sla-engine/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Detector workers.BreachDetector
	Summary  workers.DailySummary
	Store    *memory.Store
}

type Dependencies struct {
	Rules            ports.RuleRepository
	Records          ports.RecordDirectory
	Breaches         ports.BreachLog
	Hierarchy        ports.HierarchyDirectory
	Alerts           ports.AlertNotifier
	Mail             ports.MailSender
	Clock            ports.Clock
	IDGenerator      ports.IDGenerator
	VerticalMap      entities.VerticalMap
	DefaultRecipient string
	BaseURL          string
	SummaryLookback  time.Duration
	NotifyTimeout    time.Duration
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	verticalMap := deps.VerticalMap
	if verticalMap == nil {
		verticalMap = entities.DefaultVerticalMap()
	}

	detector := workers.BreachDetector{
		Rules:            deps.Rules,
		Records:          deps.Records,
		Breaches:         deps.Breaches,
		Hierarchy:        deps.Hierarchy,
		Alerts:           deps.Alerts,
		Mail:             deps.Mail,
		Clock:            deps.Clock,
		IDGen:            deps.IDGenerator,
		VerticalMap:      verticalMap,
		DefaultRecipient: deps.DefaultRecipient,
		NotifyTimeout:    deps.NotifyTimeout,
		Logger:           deps.Logger,
	}
	summary := workers.DailySummary{
		Breaches:    deps.Breaches,
		Mail:        deps.Mail,
		Clock:       deps.Clock,
		BaseURL:     deps.BaseURL,
		Lookback:    deps.SummaryLookback,
		SendTimeout: deps.NotifyTimeout,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateRule: commands.CreateRuleUseCase{
				Rules:  deps.Rules,
				Clock:  deps.Clock,
				IDGen:  deps.IDGenerator,
				Logger: deps.Logger,
			},
			SetRuleActive: commands.SetRuleActiveUseCase{
				Rules:  deps.Rules,
				Clock:  deps.Clock,
				Logger: deps.Logger,
			},
			StampStageChange: commands.StampStageChangeUseCase{
				Clock:  deps.Clock,
				Logger: deps.Logger,
			},
			ListRules: queries.ListRulesUseCase{
				Rules:  deps.Rules,
				Logger: deps.Logger,
			},
			GetRule: queries.GetRuleUseCase{
				Rules:  deps.Rules,
				Logger: deps.Logger,
			},
			ListBreaches: queries.ListBreachesUseCase{
				Breaches: deps.Breaches,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			Detector: detector,
			Summary:  summary,
			Logger:   deps.Logger,
		},
		Detector: detector,
		Summary:  summary,
	}
}

func NewInMemoryModule(
	seedRules []entities.Rule,
	seedRecords []entities.MonitoredRecord,
	defaultRecipient string,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seedRules, seedRecords)
	module := NewModule(Dependencies{
		Rules:            store,
		Records:          store,
		Breaches:         store,
		Hierarchy:        store,
		Alerts:           store,
		Mail:             noopMailSender{},
		Clock:            store,
		IDGenerator:      store,
		DefaultRecipient: defaultRecipient,
		BaseURL:          "http://localhost:8080",
		SummaryLookback:  24 * time.Hour,
		NotifyTimeout:    10 * time.Second,
		Logger:           logger,
	})
	module.Store = store
	return module
}

type noopMailSender struct{}

func (noopMailSender) Send(_ context.Context, _ []string, _ string, _ string) error {
	return nil
}
