package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestResolveRecipientsFallsBackToDefault(t *testing.T) {
	hierarchy := stubHierarchy{}

	got := ResolveRecipients(context.Background(), hierarchy, "  ", "Permanent", "CRM-Head@Example.com", nil)
	if !reflect.DeepEqual(got, []string{"crm-head@example.com"}) {
		t.Fatalf("expected default for missing owner, got %v", got)
	}

	got = ResolveRecipients(context.Background(), hierarchy, "user-7", "Permanent", "crm-head@example.com", nil)
	if !reflect.DeepEqual(got, []string{"crm-head@example.com"}) {
		t.Fatalf("expected default for empty hierarchy, got %v", got)
	}

	hierarchy.err = errors.New("directory offline")
	got = ResolveRecipients(context.Background(), hierarchy, "user-7", "Permanent", "crm-head@example.com", nil)
	if !reflect.DeepEqual(got, []string{"crm-head@example.com"}) {
		t.Fatalf("expected default on lookup failure, got %v", got)
	}
}

func TestResolveRecipientsNormalizesAndDedupes(t *testing.T) {
	hierarchy := stubHierarchy{
		emails: []string{" Mgr.One@Example.com", "mgr.two@example.com", "mgr.one@example.com", ""},
	}

	got := ResolveRecipients(context.Background(), hierarchy, "user-7", "Permanent", "crm-head@example.com", nil)
	if !reflect.DeepEqual(got, []string{"mgr.one@example.com", "mgr.two@example.com"}) {
		t.Fatalf("expected normalized deduped managers, got %v", got)
	}
}

type stubHierarchy struct {
	emails []string
	err    error
}

func (s stubHierarchy) ManagerEmails(_ context.Context, _ string, _ string) ([]string, error) {
	return s.emails, s.err
}
