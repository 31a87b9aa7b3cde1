package chargeRepo

import (
	"context"
	"fmt"
	"time"

	"campushub/database"
	"campushub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoChargeRepo implements ChargeRepository using MongoDB.
type MongoChargeRepo struct {
	coll *mongo.Collection
}

// NewMongoChargeRepo creates a new instance of ChargeRepository using MongoDB.
func NewMongoChargeRepo() ChargeRepository {
	repo := &MongoChargeRepo{coll: database.Collection("charges")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoChargeRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "term", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new charge document.
func (r *MongoChargeRepo) Create(charge *models.Charge) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	charge.CreatedAt = now
	charge.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, charge); err != nil {
		return fmt.Errorf("failed to create charge: %w", err)
	}
	return nil
}

// Update modifies an existing charge document.
func (r *MongoChargeRepo) Update(charge *models.Charge) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	charge.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": charge.ID}, bson.M{"$set": charge})
	if err != nil {
		return fmt.Errorf("failed to update charge with id %s: %w", charge.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("charge with id %s not found", charge.ID)
	}
	return nil
}

// Delete removes a charge document by its ID.
func (r *MongoChargeRepo) Delete(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete charge with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("charge with id %s not found", id)
	}
	return nil
}

// GetByID retrieves a charge by its unique ID. Returns nil when absent.
func (r *MongoChargeRepo) GetByID(id string) (*models.Charge, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var charge models.Charge
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&charge); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch charge with id %s: %w", id, err)
	}
	return &charge, nil
}

// List retrieves charges matching the filter, newest first.
func (r *MongoChargeRepo) List(filter ChargeFilter) ([]models.Charge, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Term != "" {
		query["term"] = filter.Term
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve charges: %w", err)
	}
	defer cursor.Close(ctx)

	var charges []models.Charge
	if err := cursor.All(ctx, &charges); err != nil {
		return nil, fmt.Errorf("failed to decode charges: %w", err)
	}
	return charges, nil
}

// ListApplicable retrieves active charges billable to the given program as of
// the given date.
func (r *MongoChargeRepo) ListApplicable(program string, asOf time.Time) ([]models.Charge, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	query := bson.M{
		"status":         models.ChargeStatusActive,
		"due_date":       bson.M{"$gte": asOf},
		"applicable_for": bson.M{"$in": []string{models.ApplicableForAll, program}},
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve applicable charges: %w", err)
	}
	defer cursor.Close(ctx)

	var charges []models.Charge
	if err := cursor.All(ctx, &charges); err != nil {
		return nil, fmt.Errorf("failed to decode charges: %w", err)
	}
	return charges, nil
}
