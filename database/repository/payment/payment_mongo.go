package paymentRepo

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

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo creates a new instance of PaymentRepository using MongoDB.
func NewMongoPaymentRepo() PaymentRepository {
	repo := &MongoPaymentRepo{coll: database.Collection("payments")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "metadata.razorpay_order_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new payment document.
func (r *MongoPaymentRepo) Create(payment *models.Payment) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// Update modifies an existing payment document.
func (r *MongoPaymentRepo) Update(payment *models.Payment) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	payment.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": payment.ID}, bson.M{"$set": payment})
	if err != nil {
		return fmt.Errorf("failed to update payment with id %s: %w", payment.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("payment with id %s not found", payment.ID)
	}
	return nil
}

// GetByID retrieves a payment by its unique ID. Returns nil when absent.
func (r *MongoPaymentRepo) GetByID(id string) (*models.Payment, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment with id %s: %w", id, err)
	}
	return &payment, nil
}

// FindPendingByOrderID locates the Pending payment carrying the gateway order id.
func (r *MongoPaymentRepo) FindPendingByOrderID(studentID, orderID string) (*models.Payment, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"student_id":                  studentID,
		"status":                      models.PaymentStatusPending,
		"metadata." + models.MetaOrderID: orderID,
	}

	var payment models.Payment
	if err := r.coll.FindOne(ctx, filter).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment for order %s: %w", orderID, err)
	}
	return &payment, nil
}

// ListByStudent retrieves a student's payments matching the filter, newest first.
func (r *MongoPaymentRepo) ListByStudent(studentID string, filter PaymentFilter) ([]models.Payment, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	query := bson.M{"student_id": studentID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Method != "" {
		query["method"] = filter.Method
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}
