package audit

import "time"

// Action tags the kind of lifecycle event an Entry records.
type Action string

const (
	ActionCreated          Action = "Created"
	ActionUpdated          Action = "Updated"
	ActionDeleted          Action = "Deleted"
	ActionRestored         Action = "Restored"
	ActionMonthlyReset     Action = "MonthlyReset"
	ActionAutoExpire       Action = "AutoExpire"
	ActionInvoiceGenerated Action = "InvoiceGenerated"
)

// Entry is one append-only audit record. Entries are never mutated or
// deleted by the engine.
type Entry struct {
	ID         string
	CustomerID string
	Action     Action
	Details    string
	Timestamp  time.Time
}
