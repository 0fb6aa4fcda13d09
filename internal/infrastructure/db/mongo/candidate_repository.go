package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ballotbox/voting-api/internal/core/domain"
	"github.com/ballotbox/voting-api/internal/core/ports"
)

type CandidateRepository struct {
	col *mongo.Collection
}

func NewCandidateRepository(db *mongo.Database) ports.CandidateRepository {
	return &CandidateRepository{col: db.Collection(collectionCandidates)}
}

type candidateDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Name               string             `bson:"name"`
	ProfileDescription string             `bson:"profile_description"`
	LinkedInURL        string             `bson:"linkedin_url"`
}

func (d candidateDoc) toDomain() domain.Candidate {
	return domain.Candidate{
		ID:                 d.ID.Hex(),
		Name:               d.Name,
		ProfileDescription: d.ProfileDescription,
		LinkedInURL:        d.LinkedInURL,
	}
}

// List returns candidates in creation order.
func (r *CandidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []candidateDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	out := make([]domain.Candidate, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*domain.Candidate, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCandidateNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc candidateDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) (*domain.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := candidateDoc{
		ID:                 primitive.NewObjectID(),
		Name:               c.Name,
		ProfileDescription: c.ProfileDescription,
		LinkedInURL:        c.LinkedInURL,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}
	created := doc.toDomain()
	return &created, nil
}

func (r *CandidateRepository) Update(ctx context.Context, c *domain.Candidate) error {
	oid, ok := objectID(c.ID)
	if !ok {
		return domain.ErrCandidateNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":                c.Name,
		"profile_description": c.ProfileDescription,
		"linkedin_url":        c.LinkedInURL,
	}})
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCandidateNotFound
	}
	return nil
}

func (r *CandidateRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrCandidateNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCandidateNotFound
	}
	return nil
}
