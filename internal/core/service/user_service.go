package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

var createdFields = []string{"firstName", "lastName", "email", "stack"}

type UserService struct {
	repo     ports.UserRepository
	events   ports.EventPublisher
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewUserService returns a UserService. events may be nil, in which case no
// audit trail is kept.
func NewUserService(repo ports.UserRepository, events ports.EventPublisher, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		events:   events,
		validate: newUserValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateUser validates the input in a fixed order and inserts a new record.
// The email pre-check sits between the email and stack rules, so a duplicate
// email is reported before a missing stack.
func (s *UserService) CreateUser(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	candidate := newUser{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Stack:     input.Stack,
	}

	if err := validateFields(s.validate, candidate, "FirstName", "LastName", "Email"); err != nil {
		return nil, err
	}

	_, err := s.repo.FindOne(ctx, ports.UserFilter{Email: input.Email})
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("create user: check email: %w", err)
	}

	if err := validateFields(s.validate, candidate, "Stack"); err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, &domain.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Stack:     input.Stack,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.UsersCreatedTotal.Inc()
	s.publish(created.ID, domain.ActionCreated, createdFields)
	s.logger.Info().Str("user_id", created.ID).Msg("user created")

	return created, nil
}

// ListUsers returns every record; an empty collection yields an empty, non-nil slice.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetUserByName returns the lowest-id record whose first name matches exactly.
func (s *UserService) GetUserByName(ctx context.Context, firstName string) (*domain.User, error) {
	return s.repo.FindOne(ctx, ports.UserFilter{FirstName: firstName})
}

func (s *UserService) UpdateUserByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	updated, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.afterUpdate(updated, patch, "id")
	return updated, nil
}

func (s *UserService) UpdateUserByName(ctx context.Context, firstName string, patch domain.UserPatch) (*domain.User, error) {
	updated, err := s.repo.UpdateOne(ctx, ports.UserFilter{FirstName: firstName}, patch)
	if err != nil {
		return nil, err
	}
	s.afterUpdate(updated, patch, "name")
	return updated, nil
}

func (s *UserService) DeleteUserByID(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	s.afterDelete(deleted, "id")
	return nil
}

func (s *UserService) DeleteUserByName(ctx context.Context, firstName string) error {
	deleted, err := s.repo.DeleteOne(ctx, ports.UserFilter{FirstName: firstName})
	if err != nil {
		return err
	}
	s.afterDelete(deleted, "name")
	return nil
}

func (s *UserService) afterUpdate(u *domain.User, patch domain.UserPatch, addressedBy string) {
	metrics.UsersUpdatedTotal.WithLabelValues(addressedBy).Inc()
	s.publish(u.ID, domain.ActionUpdated, patch.Fields())
	s.logger.Info().
		Str("user_id", u.ID).
		Str("addressed_by", addressedBy).
		Strs("fields", patch.Fields()).
		Msg("user updated")
}

func (s *UserService) afterDelete(u *domain.User, addressedBy string) {
	metrics.UsersDeletedTotal.WithLabelValues(addressedBy).Inc()
	s.publish(u.ID, domain.ActionDeleted, nil)
	s.logger.Info().Str("user_id", u.ID).Str("addressed_by", addressedBy).Msg("user deleted")
}

func (s *UserService) publish(userID string, action domain.UserAction, fields []string) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.UserEvent{
		UserID:     userID,
		Action:     action,
		Fields:     fields,
		OccurredAt: s.now().UTC(),
	})
}
