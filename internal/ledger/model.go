package ledger

import "time"

// Transaction records funds notionally moved from a sender to a receiver phone
// for a named product. Deleted transactions are kept but hidden.
type Transaction struct {
	ID            string
	SenderPhone   string
	ReceiverPhone string
	Product       string
	Amount        int64
	Deleted       bool
	CreatedAt     time.Time
}

// CreateInput carries the caller-supplied fields of a new transaction. The
// sender is never part of it; it always comes from the authenticated caller.
type CreateInput struct {
	ReceiverPhone string
	Product       string
	Amount        int64
}
