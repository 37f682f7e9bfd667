package domain

import "time"

// UserAction names the kind of mutation recorded in the audit trail.
type UserAction string

const (
	ActionCreated UserAction = "created"
	ActionUpdated UserAction = "updated"
	ActionDeleted UserAction = "deleted"
)

// UserEvent is an audit entry describing a single mutation of a user record.
type UserEvent struct {
	UserID     string
	Action     UserAction
	Fields     []string // changed fields; empty for deletes
	OccurredAt time.Time
}
