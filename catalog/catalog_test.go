package catalog_test

import (
	"errors"
	"testing"

	"github.com/xraph/conduit/catalog"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := catalog.NewRegistry()

	et := r.RegisterType(catalog.WebhookDefinition{
		Name:        "invoice.created",
		Description: "Invoice created",
		Group:       "invoice",
	})
	if et.ID.String() == "" {
		t.Fatal("expected non-empty ID")
	}

	got, err := r.GetType("invoice.created")
	if err != nil {
		t.Fatal(err)
	}
	if got.Definition.Name != "invoice.created" {
		t.Fatalf("got %q", got.Definition.Name)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := catalog.NewRegistry()

	_, err := r.GetType("nope.never")
	if !errors.Is(err, catalog.ErrTypeNotFound) {
		t.Fatalf("got %v, want ErrTypeNotFound", err)
	}
}

func TestRegistryUpsertKeepsID(t *testing.T) {
	r := catalog.NewRegistry()

	first := r.RegisterType(catalog.WebhookDefinition{Name: "a.event", Description: "v1"})
	second := r.RegisterType(catalog.WebhookDefinition{Name: "a.event", Description: "v2"})

	if first.ID != second.ID {
		t.Fatal("upsert should keep the original ID")
	}
	if second.Definition.Description != "v2" {
		t.Fatalf("definition not updated: %q", second.Definition.Description)
	}
}

func TestRegistryListFiltersDeprecated(t *testing.T) {
	r := catalog.NewRegistry()

	r.RegisterType(catalog.WebhookDefinition{Name: "a.event"})
	r.RegisterType(catalog.WebhookDefinition{Name: "b.event"})
	if err := r.DeprecateType("a.event"); err != nil {
		t.Fatal(err)
	}

	active := r.ListTypes(catalog.ListOpts{})
	if len(active) != 1 || active[0].Definition.Name != "b.event" {
		t.Fatalf("active types = %v", names(active))
	}

	all := r.ListTypes(catalog.ListOpts{IncludeDeprecated: true})
	if len(all) != 2 {
		t.Fatalf("all types = %v", names(all))
	}
}

func TestRegistryListByGroup(t *testing.T) {
	r := catalog.NewRegistry()

	r.RegisterType(catalog.WebhookDefinition{Name: "invoice.created", Group: "invoice"})
	r.RegisterType(catalog.WebhookDefinition{Name: "invoice.paid", Group: "invoice"})
	r.RegisterType(catalog.WebhookDefinition{Name: "user.created", Group: "user"})

	got := r.ListTypes(catalog.ListOpts{Group: "invoice"})
	if len(got) != 2 {
		t.Fatalf("invoice group = %v", names(got))
	}
}

func TestRegistryMatchTypes(t *testing.T) {
	r := catalog.NewRegistry()

	r.RegisterType(catalog.WebhookDefinition{Name: "invoice.created"})
	r.RegisterType(catalog.WebhookDefinition{Name: "invoice.paid"})
	r.RegisterType(catalog.WebhookDefinition{Name: "user.created"})

	got := r.MatchTypes("invoice.*")
	if len(got) != 2 {
		t.Fatalf("MatchTypes(invoice.*) = %v", names(got))
	}
	if got[0].Definition.Name != "invoice.created" || got[1].Definition.Name != "invoice.paid" {
		t.Fatalf("MatchTypes order = %v", names(got))
	}
}

func TestRegistryDeprecateUnknown(t *testing.T) {
	r := catalog.NewRegistry()

	if err := r.DeprecateType("nope.never"); !errors.Is(err, catalog.ErrTypeNotFound) {
		t.Fatalf("got %v, want ErrTypeNotFound", err)
	}
}

func names(ets []*catalog.EventType) []string {
	out := make([]string, len(ets))
	for i, et := range ets {
		out[i] = et.Definition.Name
	}
	return out
}
