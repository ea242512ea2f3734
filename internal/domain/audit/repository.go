package audit

import "context"

// Repository persists audit entries. The backing table may be provisioned
// after the rest of the schema; implementations must surface a missing
// table as a schema error distinct from "no entries".
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	// ListByCustomer returns a customer's full history, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*Entry, error)
	// ListByAction returns up to limit entries with the given action tag,
	// newest first.
	ListByAction(ctx context.Context, action Action, limit int) ([]*Entry, error)
}
