package workers

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"stagewatch/contexts/crm-compliance/sla-engine/domain/entities"
)

//go:embed digest.gohtml
var digestTemplateSource string

var digestTemplate = template.Must(template.New("sla-digest").Parse(digestTemplateSource))

type digestRow struct {
	RecordID      string
	RecordURL     string
	Vertical      string
	Stage         string
	HoursExceeded string
	Owner         string
	Message       string
	DetectedAt    string
}

type digestParams struct {
	Rows []digestRow
}

func renderDigest(baseURL string, events []entities.BreachEvent) (string, error) {
	rows := make([]digestRow, 0, len(events))
	for _, event := range events {
		rows = append(rows, digestRow{
			RecordID:      fallbackDash(event.RecordID),
			RecordURL:     recordURL(baseURL, event),
			Vertical:      fallbackDash(event.Vertical),
			Stage:         fallbackDash(event.Stage),
			HoursExceeded: fmt.Sprintf("%.1f Hours", event.HoursExceeded),
			Owner:         fallbackDash(event.RecordOwner),
			Message:       fallbackDash(event.Message),
			DetectedAt:    event.DetectedAt.Format("2006-01-02 03:04 PM"),
		})
	}

	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, digestParams{Rows: rows}); err != nil {
		return "", err
	}
	return body.String(), nil
}

func recordURL(baseURL string, event entities.BreachEvent) string {
	slug := strings.ReplaceAll(strings.ToLower(string(event.EntityType)), " ", "-")
	return fmt.Sprintf("%s/app/%s/%s", strings.TrimRight(baseURL, "/"), slug, event.RecordID)
}

func fallbackDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
