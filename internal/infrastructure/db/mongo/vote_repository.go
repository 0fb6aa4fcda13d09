package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

// VoteRepository implements ports.VoteRepository. User and candidate ids
// are stored as ObjectIDs so the aggregations can join on them.
type VoteRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewVoteRepository(db *mongo.Database) ports.VoteRepository {
	return &VoteRepository{db: db, col: db.Collection(collectionVotes)}
}

type voteDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	CandidateID primitive.ObjectID `bson:"candidate_id"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// Insert relies on the unique user_id index: a second vote for the same
// user fails with domain.ErrAlreadyVoted whatever the caller checked before.
func (r *VoteRepository) Insert(ctx context.Context, v *domain.Vote) error {
	userID, ok := objectID(v.UserID)
	if !ok {
		return fmt.Errorf("insert vote: malformed user id %q", v.UserID)
	}
	candidateID, ok := objectID(v.CandidateID)
	if !ok {
		return domain.ErrCandidateNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := voteDoc{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		CandidateID: candidateID,
		CreatedAt:   v.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return voteInsertError(err)
	}
	v.ID = doc.ID.Hex()
	return nil
}

func (r *VoteRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	oid, ok := objectID(userID)
	if !ok {
		return false, nil
	}
	return r.exists(ctx, bson.M{"user_id": oid})
}

func (r *VoteRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.count(ctx, filter)
	return n > 0, err
}

func (r *VoteRepository) CountForCandidate(ctx context.Context, candidateID string) (int64, error) {
	oid, ok := objectID(candidateID)
	if !ok {
		return 0, nil
	}
	return r.count(ctx, bson.M{"candidate_id": oid})
}

func (r *VoteRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *VoteRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

func (r *VoteRepository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete votes: %w", err)
	}
	return res.DeletedCount, nil
}

type candidateTallyDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	VoteCount int64              `bson:"vote_count"`
}

// TallyByCandidate starts from the candidates so that candidates without
// votes appear with a zero count.
func (r *VoteRepository) TallyByCandidate(ctx context.Context) ([]domain.CandidateTally, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionVotes,
			"localField":   "_id",
			"foreignField": "candidate_id",
			"as":           "votes",
		}}},
		{{Key: "$project", Value: bson.M{
			"name":       1,
			"vote_count": bson.M{"$size": "$votes"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.db.Collection(collectionCandidates).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []candidateTallyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tally: %w", err)
	}
	out := make([]domain.CandidateTally, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.CandidateTally{ID: d.ID.Hex(), Name: d.Name, VoteCount: d.VoteCount})
	}
	return out, nil
}

type voterDoc struct {
	UserID        primitive.ObjectID `bson:"user_id"`
	Name          string             `bson:"name"`
	Email         string             `bson:"email"`
	CandidateName string             `bson:"candidate_name"`
	VotedAt       time.Time          `bson:"created_at"`
}

// Voters joins each vote with its user and candidate, newest vote first.
// Votes whose user or candidate no longer exists are skipped.
func (r *VoteRepository) Voters(ctx context.Context) ([]domain.VoterRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionUsers,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionCandidates,
			"localField":   "candidate_id",
			"foreignField": "_id",
			"as":           "candidate",
		}}},
		{{Key: "$unwind", Value: "$candidate"}},
		{{Key: "$project", Value: bson.M{
			"user_id":        1,
			"created_at":     1,
			"name":           "$user.name",
			"email":          "$user.email",
			"candidate_name": "$candidate.name",
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []voterDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode voters: %w", err)
	}
	out := make([]domain.VoterRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.VoterRecord{
			UserID:        d.UserID.Hex(),
			Name:          d.Name,
			Email:         d.Email,
			CandidateName: d.CandidateName,
			VotedAt:       d.VotedAt.UTC(),
		})
	}
	return out, nil
}
