package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/danceschool/portal/internal/ui/types"
	"github.com/danceschool/portal/internal/utils"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestEscaping(t *testing.T) {
	got := render(t, ErrorAlert(`<script>alert("x")</script>`))
	if strings.Contains(got, "<script>") {
		t.Errorf("ErrorAlert() did not escape its message: %s", got)
	}
}

func TestLoadingPage(t *testing.T) {
	got := render(t, LoadingPage("/financial?period=2026-10", 1500*time.Millisecond))
	if !strings.Contains(got, `http-equiv="refresh"`) {
		t.Error("loading page does not refresh itself")
	}
	if !strings.Contains(got, "2; url=/financial?period=2026-10") {
		t.Errorf("loading page refresh target wrong: %s", got)
	}
}

func TestAccessDeniedPage(t *testing.T) {
	got := render(t, AccessDeniedPage(AccessDeniedMessage))
	if !strings.Contains(got, AccessDeniedMessage) {
		t.Error("access denied page is missing the denial message")
	}
	if strings.Contains(got, `action="/logout"`) {
		t.Error("access denied page should not render the navigation")
	}
}

func TestModalityRowActions(t *testing.T) {
	money, err := utils.NewMoneyFormatter("pt-BR", "BRL")
	if err != nil {
		t.Fatal(err)
	}
	m := types.Modality{ID: "m1", Name: "Tango", Level: "beginner", MonthlyFee: 150, Capacity: 12, Enrolled: 3, Active: true}

	tests := []struct {
		name        string
		actions     ModalityActions
		wantEdit    bool
		wantDelete  bool
		wantActions bool
	}{
		{name: "read only", actions: ModalityActions{}},
		{name: "writer", actions: ModalityActions{CanWrite: true}, wantEdit: true, wantActions: true},
		{name: "admin", actions: ModalityActions{CanWrite: true, CanDelete: true}, wantEdit: true, wantDelete: true, wantActions: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, ModalityRow(m, tt.actions, money))
			if strings.Contains(got, `hx-put="/modalities/m1"`) != tt.wantEdit {
				t.Errorf("edit form rendered = %v, want %v", !tt.wantEdit, tt.wantEdit)
			}
			if strings.Contains(got, `hx-delete="/modalities/m1"`) != tt.wantDelete {
				t.Errorf("delete button rendered = %v, want %v", !tt.wantDelete, tt.wantDelete)
			}
			if strings.Contains(got, `class="actions"`) != tt.wantActions {
				t.Errorf("actions cell rendered = %v, want %v", !tt.wantActions, tt.wantActions)
			}
		})
	}
}

// every row action must also work as a plain form post
func TestModalityRowFormFallbacks(t *testing.T) {
	money, err := utils.NewMoneyFormatter("pt-BR", "BRL")
	if err != nil {
		t.Fatal(err)
	}
	m := types.Modality{ID: "m1", Name: "Tango", Level: "beginner", MonthlyFee: 150, Capacity: 12, Active: false}
	got := render(t, ModalityRow(m, ModalityActions{CanWrite: true, CanDelete: true}, money))

	for _, want := range []string{
		`<form method="post" action="/modalities/m1/active"`,
		`<input type="hidden" name="_method" value="PATCH"> <input type="hidden" name="active" value="true">`,
		`>Activate</button>`,
		`<form method="post" action="/modalities/m1" hx-put="/modalities/m1"`,
		`<input type="hidden" name="_method" value="PUT">`,
		`<form method="post" action="/modalities/m1" hx-delete="/modalities/m1" hx-confirm="Delete Tango?"`,
		`<input type="hidden" name="_method" value="DELETE">`,
		`<option value="beginner" selected>beginner</option>`,
		`name="monthly_fee" type="number" min="0" step="0.01" required value="150.00"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("row does not contain %q", want)
		}
	}
}

func TestModalitiesPage(t *testing.T) {
	money, err := utils.NewMoneyFormatter("pt-BR", "BRL")
	if err != nil {
		t.Fatal(err)
	}
	page := &types.ModalityPage{
		Items:      []types.Modality{{ID: "m1", Name: "Tango", Level: "all", Active: true}},
		Page:       2,
		TotalPages: 3,
	}
	got := render(t, ModalitiesPage(nil, page, "tan go", ModalityActions{CanWrite: true}, money))

	for _, want := range []string{
		`<tr id="modality-m1">`,
		`<form method="post" action="/modalities" hx-post="/modalities"`,
		`name="capacity" type="number" min="1" required value=""`,
		`href="/modalities?page=1&amp;search=tan+go"`,
		`<span>Page 2 of 3</span>`,
		`href="/modalities?page=3&amp;search=tan+go"`,
		`value="tan go"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
	if strings.Contains(got, "No modalities found.") {
		t.Error("empty message shown with results")
	}
}

func TestLayout(t *testing.T) {
	got := render(t, ErrorPage([]NavItem{{Label: "Dashboard", Href: "/dashboard"}}, "boom"))

	if !strings.HasPrefix(got, "<!doctype html>") {
		t.Errorf("page does not start with a doctype: %.40s", got)
	}
	if !strings.Contains(got, `<a href="/dashboard">Dashboard</a>`) || !strings.Contains(got, `action="/logout"`) {
		t.Error("navigation missing")
	}
	if !strings.Contains(got, `<main><section class="error">`) {
		t.Error("page content not rendered inside main")
	}
	// the htmx build is not shipped in web/static, pages must not reference it
	if strings.Contains(got, "htmx.min.js") {
		t.Error("layout references a missing htmx asset")
	}
}
