// Package models defines the core domain models for mealledger.
//
// The wire format is fixed by the existing ledger server: field names in the
// JSON payload (including the historical "Reciepts" spelling) must not change,
// or older clients and servers stop understanding each other. Go identifiers
// use the correct spelling; struct tags carry the wire names.
package models

import "time"

// User is one member of the ledger roster.
type User struct {
	// ID is the unique, stable identifier for the user. IDs may be sparse;
	// roster position is a per-snapshot artifact and must not be persisted.
	ID uint `json:"ID"`

	// UPN is the display name of the user.
	UPN string `json:"UPN"`
}

// Receipt records a single payment: the payer advanced NumMeals units of
// value to the payee. NumMeals is positive by convention but the sign is not
// load-bearing; netting consumes the raw value.
type Receipt struct {
	Payer    uint      `json:"Payer"`
	Payee    uint      `json:"Payee"`
	NumMeals int       `json:"NumMeals"`
	DateTime time.Time `json:"DateTime"`
}

// Ledger is the full payload served by the ledger endpoint: the ordered user
// roster plus the raw transaction log.
type Ledger struct {
	Users []User `json:"Users"`

	// Receipts is serialized as "Reciepts". The misspelling predates this
	// codebase and is part of the protocol surface.
	Receipts []Receipt `json:"Reciepts"`
}

// SummaryRecord holds the aggregate credit totals between one user and a
// counterparty.
type SummaryRecord struct {
	// IncomingCredits is the number of credits this user is owed.
	IncomingCredits uint `json:"incoming-credits"`

	// OutgoingCredits is the number of credits this user owes.
	OutgoingCredits uint `json:"outgoing-credits"`
}
