// Package render turns a ledger snapshot into per-user debt rows by filling
// placeholder tokens in the server-provided HTML fragment.
package render

import (
	"fmt"
	"regexp"

	"mealledger/internal/ledger"
	"mealledger/internal/models"
)

// Placeholder tokens are matched case-insensitively, as the original site
// template allowed any casing inside the braces.
var (
	upnToken     = regexp.MustCompile(`(?i)\{\{upn\}\}`)
	summaryToken = regexp.MustCompile(`(?i)\{\{summary\}\}`)
	whoamiToken  = regexp.MustCompile(`(?i)\{\{whoami\}\}`)
)

// Template wraps the debt-row fragment fetched from the server.
type Template struct {
	fragment string
}

// NewTemplate wraps a fetched fragment.
func NewTemplate(fragment string) *Template {
	return &Template{fragment: fragment}
}

// Summary formats the debt text for a net balance from the viewer's
// perspective: positive means the viewer owes, negative means the viewer is
// owed, zero renders nothing.
func Summary(net int) string {
	switch {
	case net > 0:
		return fmt.Sprintf("You owe: %d", net)
	case net < 0:
		return fmt.Sprintf("Owes you: %d", -net)
	default:
		return ""
	}
}

// Row renders one debt row for user u, where net is the balance between the
// viewer and u (viewer's perspective) and viewer is the current identity's
// display name.
func (t *Template) Row(u models.User, net int, viewer string) string {
	row := upnToken.ReplaceAllString(t.fragment, u.UPN)
	row = summaryToken.ReplaceAllString(row, Summary(net))
	return whoamiToken.ReplaceAllString(row, viewer)
}

// Rows renders a row for every roster member except the identity itself; a
// user's debt to themself is never shown.
func (t *Template) Rows(snap *ledger.Snapshot) []string {
	self, ok := snap.Matrix.Position(snap.Identity.ID)
	if !ok {
		// Identity always comes from the same roster as the matrix, so this
		// only happens on an empty snapshot.
		return nil
	}

	rows := make([]string, 0, len(snap.Roster)-1)
	for i, u := range snap.Roster {
		if i == self {
			continue
		}
		rows = append(rows, t.Row(u, snap.Matrix.At(self, i), snap.Identity.UPN))
	}
	return rows
}
