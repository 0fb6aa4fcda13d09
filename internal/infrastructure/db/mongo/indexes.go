package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

const (
	indexUserEmail    = "users_email_unique"
	indexUserGoogle   = "users_google_id_unique"
	indexUserLinkedIn = "users_linkedin_id_unique"
	indexUserReset    = "users_reset_token"
	indexVoteUser     = "votes_user_id_unique"
	indexVoteCand     = "votes_candidate_id"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// ones carry the invariants: one account per email and per provider id,
// and one vote per user.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexUserEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetName(indexUserGoogle).SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "linkedin_id", Value: 1}},
			Options: options.Index().SetName(indexUserLinkedIn).SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "reset_token", Value: 1}},
			Options: options.Index().SetName(indexUserReset).SetSparse(true),
		},
	}
	if _, err := db.Collection(collectionUsers).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	votes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName(indexVoteUser).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "candidate_id", Value: 1}},
			Options: options.Index().SetName(indexVoteCand),
		},
	}
	if _, err := db.Collection(collectionVotes).Indexes().CreateMany(ctx, votes); err != nil {
		return fmt.Errorf("votes indexes: %w", err)
	}
	return nil
}

// isDuplicateOn reports whether err is a duplicate key error raised by the
// index on field.
func isDuplicateOn(err error, field string) bool {
	if !mongo.IsDuplicateKeyError(err) {
		return false
	}
	var index string
	switch field {
	case "email":
		index = indexUserEmail
	case "user_id":
		index = indexVoteUser
	default:
		return false
	}
	return strings.Contains(err.Error(), index)
}

// userInsertError maps a failed user insert: a duplicate email is
// ErrEmailTaken, a duplicate provider id is ErrProviderLinked.
func userInsertError(err error) error {
	switch {
	case isDuplicateOn(err, "email"):
		return domain.ErrEmailTaken
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrProviderLinked
	}
	return fmt.Errorf("insert user: %w", err)
}

func voteInsertError(err error) error {
	if isDuplicateOn(err, "user_id") {
		return domain.ErrAlreadyVoted
	}
	return fmt.Errorf("insert vote: %w", err)
}
