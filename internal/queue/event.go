// Package queue defines the audit event payload exchanged over the message
// broker and the background consumer that persists the activity trail.
package queue

// AuditEvent is published after every successful reservation mutation:
// creation, each lifecycle transition, charge additions and payment-status
// changes.  It carries enough information for downstream consumers to log,
// notify or feed analytics without querying the primary database.
type AuditEvent struct {
	Action      string `json:"action"`       // e.g. "reservation.confirmed", "charge.added"
	Actor       string `json:"actor"`        // authenticated user or "system"
	Reference   string `json:"reference"`    // reservation reference
	RoomID      uint64 `json:"room_id"`      // room the reservation occupies
	Detail      string `json:"detail"`       // free-form context (dates, charge line, reason)
	AmountCents int64  `json:"amount_cents"` // monetary amount relevant to the action
	OccurredAt  string `json:"occurred_at"`  // RFC3339 UTC
}
