package ledgerRepo

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

// MongoLedgerRepo implements LedgerRepository using MongoDB.
type MongoLedgerRepo struct {
	coll *mongo.Collection
}

// NewMongoLedgerRepo creates a new instance of LedgerRepository using MongoDB.
func NewMongoLedgerRepo() LedgerRepository {
	repo := &MongoLedgerRepo{coll: database.Collection("ledger_entries")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes creates the lookup index and the partial unique index that
// guarantees at most one Pending and one Paid entry per (student, charge)
// pair. Uniqueness at insert time is what turns the check-then-act lock
// acquisition into an atomic operation.
func (r *MongoLedgerRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "charge_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": []string{models.LedgerStatusPending, models.LedgerStatusPaid}},
			}),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "issued_at", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Acquire inserts a new Pending entry for the pair.
func (r *MongoLedgerRepo) Acquire(entry *models.LedgerEntry) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrLockHeld
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (r *MongoLedgerRepo) findOne(filter bson.M) (*models.LedgerEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var entry models.LedgerEntry
	opts := options.FindOne().SetSort(bson.D{{Key: "issued_at", Value: -1}})
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch ledger entry: %w", err)
	}
	return &entry, nil
}

// FindActiveLock returns the Pending entry for the pair, if any.
func (r *MongoLedgerRepo) FindActiveLock(studentID, chargeID string) (*models.LedgerEntry, error) {
	return r.findOne(bson.M{
		"student_id": studentID,
		"charge_id":  chargeID,
		"status":     models.LedgerStatusPending,
	})
}

// FindPaid returns the Paid entry for the pair, if any.
func (r *MongoLedgerRepo) FindPaid(studentID, chargeID string) (*models.LedgerEntry, error) {
	return r.findOne(bson.M{
		"student_id": studentID,
		"charge_id":  chargeID,
		"status":     models.LedgerStatusPaid,
	})
}

// LinkPayment attaches a payment id to a Pending entry.
func (r *MongoLedgerRepo) LinkPayment(entryID, paymentID string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": entryID, "status": models.LedgerStatusPending}
	update := bson.M{"$set": bson.M{"payment_id": paymentID}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to link payment to ledger entry %s: %w", entryID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("pending ledger entry %s not found", entryID)
	}
	return nil
}

// Finalize transitions a Pending entry to Paid.
func (r *MongoLedgerRepo) Finalize(entryID, paymentID string, paidAt time.Time) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": entryID, "status": models.LedgerStatusPending}
	update := bson.M{"$set": bson.M{
		"status":     models.LedgerStatusPaid,
		"payment_id": paymentID,
		"paid_at":    paidAt,
	}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to finalize ledger entry %s: %w", entryID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("pending ledger entry %s not found", entryID)
	}
	return nil
}

// Release deletes a Pending entry.
func (r *MongoLedgerRepo) Release(entryID string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": entryID, "status": models.LedgerStatusPending}
	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to release ledger entry %s: %w", entryID, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("pending ledger entry %s not found", entryID)
	}
	return nil
}

// DeleteStale removes all Pending entries issued before the cutoff.
func (r *MongoLedgerRepo) DeleteStale(cutoff time.Time) (int64, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{
		"status":    models.LedgerStatusPending,
		"issued_at": bson.M{"$lt": cutoff},
	}
	result, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale ledger entries: %w", err)
	}
	return result.DeletedCount, nil
}

// ListByStudent returns all entries for a student, newest first.
func (r *MongoLedgerRepo) ListByStudent(studentID string) ([]models.LedgerEntry, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}
