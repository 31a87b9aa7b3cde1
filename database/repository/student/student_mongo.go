package studentRepo

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

// MongoStudentRepo implements StudentRepository using MongoDB.
type MongoStudentRepo struct {
	coll *mongo.Collection
}

// NewMongoStudentRepo creates a new instance of StudentRepository using MongoDB.
func NewMongoStudentRepo() StudentRepository {
	repo := &MongoStudentRepo{coll: database.Collection("students")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoStudentRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new student document.
func (r *MongoStudentRepo) Create(student *models.Student) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, student); err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// Update modifies an existing student document.
func (r *MongoStudentRepo) Update(student *models.Student) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	student.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": student.ID}, bson.M{"$set": student})
	if err != nil {
		return fmt.Errorf("failed to update student with id %s: %w", student.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("student with id %s not found", student.ID)
	}
	return nil
}

// GetByID retrieves a student by its unique ID.
func (r *MongoStudentRepo) GetByID(id string) (*models.Student, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var student models.Student
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&student); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch student with id %s: %w", id, err)
	}
	return &student, nil
}

// GetByEmail retrieves a student by email. Returns nil when absent.
func (r *MongoStudentRepo) GetByEmail(email string) (*models.Student, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var student models.Student
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&student); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch student with email %s: %w", email, err)
	}
	return &student, nil
}
