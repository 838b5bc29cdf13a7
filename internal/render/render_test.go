package render

import (
	"strings"
	"testing"

	"mealledger/internal/ledger"
	"mealledger/internal/models"
	"mealledger/internal/netting"
)

const fragment = `<div><span>{{UPN}}</span><span>{{Summary}}</span><span>{{whoami}}</span></div>`

func snapshotFor(t *testing.T, identityID uint, receipts []models.Receipt) *ledger.Snapshot {
	t.Helper()
	roster := []models.User{{ID: 1, UPN: "a"}, {ID: 2, UPN: "b"}}

	var identity models.User
	for _, u := range roster {
		if u.ID == identityID {
			identity = u
		}
	}
	if identity.UPN == "" {
		t.Fatalf("identity %d not in roster", identityID)
	}

	return &ledger.Snapshot{
		Roster:   roster,
		Matrix:   netting.Compute(roster, receipts),
		Identity: identity,
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		net  int
		want string
	}{
		{3, "You owe: 3"},
		{-3, "Owes you: 3"},
		{0, ""},
	}
	for _, tt := range tests {
		if got := Summary(tt.net); got != tt.want {
			t.Errorf("Summary(%d) = %q, want %q", tt.net, got, tt.want)
		}
	}
}

func TestRowsViewerPerspective(t *testing.T) {
	receipts := []models.Receipt{{Payer: 1, Payee: 2, NumMeals: 3}}
	tmpl := NewTemplate(fragment)

	t.Run("payer sees You owe", func(t *testing.T) {
		rows := tmpl.Rows(snapshotFor(t, 1, receipts))
		if len(rows) != 1 {
			t.Fatalf("Rows() returned %d rows, want 1", len(rows))
		}
		if !strings.Contains(rows[0], "You owe: 3") {
			t.Errorf("row = %q, want it to contain %q", rows[0], "You owe: 3")
		}
		if !strings.Contains(rows[0], ">b<") {
			t.Errorf("row = %q, want counterparty upn b", rows[0])
		}
		if !strings.Contains(rows[0], ">a<") {
			t.Errorf("row = %q, want viewer name a", rows[0])
		}
	})

	t.Run("payee sees Owes you", func(t *testing.T) {
		rows := tmpl.Rows(snapshotFor(t, 2, receipts))
		if len(rows) != 1 {
			t.Fatalf("Rows() returned %d rows, want 1", len(rows))
		}
		if !strings.Contains(rows[0], "Owes you: 3") {
			t.Errorf("row = %q, want it to contain %q", rows[0], "Owes you: 3")
		}
	})

	t.Run("zero records renders no debt text", func(t *testing.T) {
		rows := tmpl.Rows(snapshotFor(t, 1, nil))
		if len(rows) != 1 {
			t.Fatalf("Rows() returned %d rows, want 1", len(rows))
		}
		if strings.Contains(rows[0], "owe") || strings.Contains(rows[0], "Owes") {
			t.Errorf("row = %q, want no debt text for a zero balance", rows[0])
		}
	})

	t.Run("identity row is suppressed", func(t *testing.T) {
		for _, row := range tmpl.Rows(snapshotFor(t, 1, receipts)) {
			if strings.Contains(row, ">a</span><span></span>") {
				t.Errorf("row = %q renders the identity against itself", row)
			}
		}
	})
}

func TestRowTokensCaseInsensitive(t *testing.T) {
	tmpl := NewTemplate(`{{UPN}}|{{SUMMARY}}|{{WhoAmI}}`)
	got := tmpl.Row(models.User{ID: 2, UPN: "b"}, 3, "a")
	if got != "b|You owe: 3|a" {
		t.Errorf("Row() = %q, want %q", got, "b|You owe: 3|a")
	}
}
