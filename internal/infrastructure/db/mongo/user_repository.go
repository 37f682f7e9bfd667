package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

const collectionUsers = "users"

// idAscending is the deterministic tie-break for filters on non-unique fields.
var idAscending = bson.D{{Key: "_id", Value: 1}}

// UserRepository implements ports.UserRepository on a MongoDB collection.
type UserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers), now: time.Now}
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	Email     string             `bson:"email"`
	Stack     string             `bson:"stack"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Stack:     d.Stack,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Insert stores a new user and returns it with its id and timestamps populated.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.timestamp()
	doc := userDocument{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Stack:     user.Stack,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

// FindByID treats an id that is not a valid ObjectID as absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, "find user by id")
}

func (r *UserRepository) FindOne(ctx context.Context, filter ports.UserFilter) (*domain.User, error) {
	f, err := filterDocument(filter)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, f, "find user")
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.D{}, options.Find().SetSort(idAscending))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) UpdateByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, patch)
}

func (r *UserRepository) UpdateOne(ctx context.Context, filter ports.UserFilter, patch domain.UserPatch) (*domain.User, error) {
	f, err := filterDocument(filter)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, f, patch)
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOneAndDelete(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) DeleteOne(ctx context.Context, filter ports.UserFilter) (*domain.User, error) {
	f, err := filterDocument(filter)
	if err != nil {
		return nil, err
	}
	return r.findOneAndDelete(ctx, f)
}

// EnsureIndexes creates the unique email index and the first-name lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{Keys: bson.D{{Key: "firstName", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, op string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	err := r.col.FindOne(ctx, filter, options.FindOne().SetSort(idAscending)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toDomain(), nil
}

// findOneAndUpdate applies the patch in a single round trip so that "not
// found" and the mutation cannot race each other.
func (r *UserRepository) findOneAndUpdate(ctx context.Context, filter bson.M, patch domain.UserPatch) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetSort(idAscending).
		SetReturnDocument(options.After)

	var doc userDocument
	err := r.col.FindOneAndUpdate(ctx, filter, updateDocument(patch, r.timestamp()), opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) findOneAndDelete(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	err := r.col.FindOneAndDelete(ctx, filter, options.FindOneAndDelete().SetSort(idAscending)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return doc.toDomain(), nil
}

// timestamp truncates to BSON datetime precision so returned values match stored ones.
func (r *UserRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// filterDocument rejects an empty filter; it would otherwise match any record.
func filterDocument(f ports.UserFilter) (bson.M, error) {
	doc := bson.M{}
	if f.FirstName != "" {
		doc["firstName"] = f.FirstName
	}
	if f.Email != "" {
		doc["email"] = f.Email
	}
	if len(doc) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return doc, nil
}

// updateDocument builds a $set of the present patch fields plus updatedAt.
func updateDocument(p domain.UserPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.FirstName != nil {
		set["firstName"] = *p.FirstName
	}
	if p.LastName != nil {
		set["lastName"] = *p.LastName
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Stack != nil {
		set["stack"] = *p.Stack
	}
	return bson.M{"$set": set}
}
