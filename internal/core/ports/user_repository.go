package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// UserFilter selects records by exact field match. Empty fields are ignored.
type UserFilter struct {
	FirstName string
	Email     string
}

// UserRepository is the document-store contract the user service depends on.
// Every "absent" outcome, including a malformed identifier, is domain.ErrUserNotFound.
// A violated email uniqueness constraint is domain.ErrUserExists.
type UserRepository interface {
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindOne returns the lowest-id record matching filter.
	FindOne(ctx context.Context, filter UserFilter) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)

	// UpdateByID and UpdateOne apply patch atomically and return the updated record.
	UpdateByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	UpdateOne(ctx context.Context, filter UserFilter, patch domain.UserPatch) (*domain.User, error)

	// DeleteByID and DeleteOne remove exactly one record and return it.
	DeleteByID(ctx context.Context, id string) (*domain.User, error)
	DeleteOne(ctx context.Context, filter UserFilter) (*domain.User, error)
}
