package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// EventRepository persists audit entries.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.UserEvent) error
}

// EventPublisher hands audit entries off for asynchronous persistence.
// Publish must not block the caller.
type EventPublisher interface {
	Publish(event domain.UserEvent)
}
