package handler

import "time"

// --- Request / Response types ---

// createUserRequest accepts both JSON and form-encoded bodies.
type createUserRequest struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName"  form:"lastName"`
	Email     string `json:"email"     form:"email"`
	Stack     string `json:"stack"     form:"stack"`
}

// updateUserRequest only carries the mutable fields; any other key in the
// body is ignored by the binder.
type updateUserRequest struct {
	FirstName *string `json:"firstName" form:"firstName"`
	LastName  *string `json:"lastName"  form:"lastName"`
	Email     *string `json:"email"     form:"email"`
	Stack     *string `json:"stack"     form:"stack"`
}

type userResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Stack     string    `json:"stack"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// userEnvelope is the body of every single-record response.
type userEnvelope struct {
	Message string        `json:"message,omitempty"`
	Data    *userResponse `json:"data,omitempty"`
}

// userListEnvelope always carries data, so an empty store renders [].
type userListEnvelope struct {
	Message string         `json:"message"`
	Data    []userResponse `json:"data"`
}
