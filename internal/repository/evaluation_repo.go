package repository

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

// documentValidationFailure is the MongoDB server code returned when a write
// violates a collection's $jsonSchema validator.
const documentValidationFailure = 121

// EvaluationRepo is the durable result store for completed evaluations
type EvaluationRepo interface {
	Save(ctx context.Context, result *model.EvaluationResult) error
	ListByUser(ctx context.Context, userID string) ([]*model.EvaluationResult, error)
	Delete(ctx context.Context, userID, id string) error
}

type evaluationRepo struct {
	collection *mongo.Collection
}

// NewEvaluationRepo creates a new evaluation repository
func NewEvaluationRepo(db *mongo.Database) EvaluationRepo {
	return &evaluationRepo{
		collection: db.Collection("evaluations"),
	}
}

// Save writes the full record, then retries once without the optional
// metadata field if the collection's schema rejects it. Deployments that
// predate the metadata field keep accepting writes this way; the evaluation
// itself is never lost over an optional field.
func (r *evaluationRepo) Save(ctx context.Context, result *model.EvaluationResult) error {
	_, err := r.collection.InsertOne(ctx, result)
	if err == nil {
		return nil
	}
	if result.Metadata == nil || !isSchemaRejection(err) {
		return err
	}

	stripped := *result
	stripped.Metadata = nil
	_, err = r.collection.InsertOne(ctx, &stripped)
	return err
}

func (r *evaluationRepo) ListByUser(ctx context.Context, userID string) ([]*model.EvaluationResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.EvaluationResult
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes a record only if it belongs to the given user.
func (r *evaluationRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// isSchemaRejection classifies errors that mean the server refused the
// document shape, as opposed to connectivity or duplicate-key failures.
func isSchemaRejection(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == documentValidationFailure {
		return true
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == documentValidationFailure {
				return true
			}
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "document failed validation")
}
