package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// CreateUserInput is the DTO passed from the transport layer to UserService.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Stack     string
}

// UserService defines the use-case operations over user records.
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByName(ctx context.Context, firstName string) (*domain.User, error)
	UpdateUserByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	UpdateUserByName(ctx context.Context, firstName string, patch domain.UserPatch) (*domain.User, error)
	DeleteUserByID(ctx context.Context, id string) error
	DeleteUserByName(ctx context.Context, firstName string) error
}
