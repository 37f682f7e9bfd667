package handler

import (
	"github.com/99minutos/user-management/internal/core/domain"
)

func toUserResponse(u *domain.User) *userResponse {
	return &userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Stack:     u.Stack,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *toUserResponse(u))
	}
	return out
}

func (r updateUserRequest) toPatch() domain.UserPatch {
	return domain.UserPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Stack:     r.Stack,
	}
}
