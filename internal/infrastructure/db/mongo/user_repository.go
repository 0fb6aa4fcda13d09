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

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

// UserRepository implements ports.UserRepository on the users collection.
type UserRepository struct {
	col   *mongo.Collection
	votes *mongo.Collection
}

func NewUserRepository(db *mongo.Database) ports.UserRepository {
	return &UserRepository{
		col:   db.Collection(collectionUsers),
		votes: db.Collection(collectionVotes),
	}
}

// Provider ids and the reset token are omitted when empty so the sparse
// unique indexes ignore accounts without them.
type userDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Email            string             `bson:"email"`
	Name             string             `bson:"name"`
	PasswordHash     string             `bson:"password_hash,omitempty"`
	GoogleID         string             `bson:"google_id,omitempty"`
	LinkedInID       string             `bson:"linkedin_id,omitempty"`
	IsAdmin          bool               `bson:"is_admin"`
	ResetToken       string             `bson:"reset_token,omitempty"`
	ResetTokenExpiry *time.Time         `bson:"reset_token_expiry,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:               d.ID.Hex(),
		Email:            d.Email,
		Name:             d.Name,
		PasswordHash:     d.PasswordHash,
		GoogleID:         d.GoogleID,
		LinkedInID:       d.LinkedInID,
		IsAdmin:          d.IsAdmin,
		ResetToken:       d.ResetToken,
		ResetTokenExpiry: d.ResetTokenExpiry,
		CreatedAt:        d.CreatedAt.UTC(),
	}
}

func providerField(p domain.Provider) (string, error) {
	switch p {
	case domain.ProviderGoogle:
		return "google_id", nil
	case domain.ProviderLinkedIn:
		return "linkedin_id", nil
	}
	return "", fmt.Errorf("unknown provider %q", p)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error) {
	field, err := providerField(provider)
	if err != nil {
		return nil, err
	}
	if providerID == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{field: providerID})
}

// Create inserts user. The unique email index turns a concurrent duplicate
// into domain.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		GoogleID:     user.GoogleID,
		LinkedInID:   user.LinkedInID,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt.UTC(),
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, userInsertError(err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) LinkProvider(ctx context.Context, userID string, provider domain.Provider, providerID string) (*domain.User, error) {
	field, err := providerField(provider)
	if err != nil {
		return nil, err
	}
	oid, ok := objectID(userID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err = r.col.FindOneAndUpdate(ctx, linkFilter(oid, field, providerID), bson.M{"$set": bson.M{field: providerID}}, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": oid})
		if cerr != nil {
			return nil, fmt.Errorf("link provider: %w", cerr)
		}
		if n == 0 {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.ErrProviderInUse
	case mongo.IsDuplicateKeyError(err):
		return nil, domain.ErrProviderLinked
	case err != nil:
		return nil, fmt.Errorf("link provider: %w", err)
	}
	return doc.toDomain(), nil
}

// linkFilter matches the user only while field is unset or already holds
// providerID, so a concurrent link to another id cannot be overwritten.
func linkFilter(oid primitive.ObjectID, field, providerID string) bson.M {
	return bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{field: bson.M{"$exists": false}},
			bson.M{field: providerID},
		},
	}
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	return r.updateByID(ctx, userID, bson.M{"$set": bson.M{
		"reset_token":        token,
		"reset_token_expiry": expiry.UTC(),
	}})
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"reset_token": token})
}

// ConsumeResetToken matches on the token and its expiry in the same update
// that clears it, so two concurrent resets cannot both succeed.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"reset_token":        token,
		"reset_token_expiry": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash},
		"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("consume reset token: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *UserRepository) SetPassword(ctx context.Context, userID, passwordHash string) error {
	return r.updateByID(ctx, userID, bson.M{"$set": bson.M{"password_hash": passwordHash}})
}

func (r *UserRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	return r.updateByID(ctx, userID, bson.M{"$set": bson.M{"is_admin": isAdmin}})
}

// Delete removes the user, then any vote it cast. The two writes are not
// atomic; a crash in between leaves a vote that the tally joins away.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	oid, ok := objectID(userID)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	if _, err := r.votes.DeleteMany(ctx, bson.M{"user_id": oid}); err != nil {
		return fmt.Errorf("delete user votes: %w", err)
	}
	return nil
}

type userSummaryDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	IsAdmin   bool               `bson:"is_admin"`
	HasVoted  bool               `bson:"has_voted"`
	CreatedAt time.Time          `bson:"created_at"`
}

// List returns every user, newest first, with whether they have voted.
func (r *UserRepository) List(ctx context.Context) ([]domain.UserSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionVotes,
			"localField":   "_id",
			"foreignField": "user_id",
			"as":           "votes",
		}}},
		{{Key: "$project", Value: bson.M{
			"name":       1,
			"email":      1,
			"is_admin":   1,
			"created_at": 1,
			"has_voted":  bson.M{"$gt": bson.A{bson.M{"$size": "$votes"}, 0}},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userSummaryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]domain.UserSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.UserSummary{
			ID:        d.ID.Hex(),
			Name:      d.Name,
			Email:     d.Email,
			IsAdmin:   d.IsAdmin,
			HasVoted:  d.HasVoted,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) updateByID(ctx context.Context, userID string, update bson.M) error {
	oid, ok := objectID(userID)
	if !ok {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
