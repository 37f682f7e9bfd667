package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user with email already exists")
)

// ValidationError reports the first rule a new user violated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// User is the single managed record.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Stack     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch carries the mutable fields of an update. Nil means "leave as is".
type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Stack     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Stack == nil
}

// Fields lists the names of the fields present in the patch, in schema order.
func (p UserPatch) Fields() []string {
	fields := make([]string, 0, 4)
	if p.FirstName != nil {
		fields = append(fields, "firstName")
	}
	if p.LastName != nil {
		fields = append(fields, "lastName")
	}
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.Stack != nil {
		fields = append(fields, "stack")
	}
	return fields
}
