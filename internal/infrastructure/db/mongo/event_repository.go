package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

const collectionUserEvents = "user_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{col: db.Collection(collectionUserEvents)}
}

// InsertEvent persists a user mutation to the user_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.UserEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, eventDocument(event, time.Now().UTC()))
	return err
}

func eventDocument(event *domain.UserEvent, recordedAt time.Time) bson.M {
	doc := bson.M{
		"userId":     event.UserID,
		"action":     string(event.Action),
		"occurredAt": event.OccurredAt.UTC(),
		"recordedAt": recordedAt,
	}
	if len(event.Fields) > 0 {
		doc["fields"] = event.Fields
	}
	return doc
}
