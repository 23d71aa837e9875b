// internal/repository/mongo/phase_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/repository"
)

const phaseCollectionName = "quit_phases"

// mongoPhaseRepository implements repository.PhaseRepository
type mongoPhaseRepository struct {
	collection *mongo.Collection
}

// NewMongoPhaseRepository creates a new QuitPhase repository.
func NewMongoPhaseRepository(db *mongo.Database) repository.PhaseRepository {
	return &mongoPhaseRepository{
		collection: db.Collection(phaseCollectionName),
	}
}

// CreateMany inserts the full phase sequence of a plan in one call.
func (r *mongoPhaseRepository) CreateMany(ctx context.Context, phases []domain.QuitPhase) error {
	if len(phases) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(phases))
	for i := range phases {
		if phases[i].PlanID == primitive.NilObjectID {
			return errors.New("phase requires planId")
		}
		if phases[i].ID == primitive.NilObjectID {
			phases[i].ID = primitive.NewObjectID()
		}
		phases[i].CreatedAt = now
		phases[i].UpdatedAt = now
		docs = append(docs, phases[i])
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a single phase by its ID.
func (r *mongoPhaseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.QuitPhase, error) {
	var phase domain.QuitPhase
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&phase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &phase, nil
}

// GetByPlanID retrieves all phases of a plan sorted by phaseOrder ascending.
func (r *mongoPhaseRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.QuitPhase, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "phaseOrder", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var phases []domain.QuitPhase
	if err = cursor.All(ctx, &phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// Update persists completion state and goal edits of one phase. PlanID and
// phaseOrder are immutable and deliberately not part of the update document.
func (r *mongoPhaseRepository) Update(ctx context.Context, phase *domain.QuitPhase) error {
	if phase.ID == primitive.NilObjectID {
		return errors.New("phase ID is required for update")
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"goals":                phase.Goals,
			"isCompleted":          phase.IsCompleted,
			"completionPercentage": phase.CompletionPercentage,
			"startDate":            phase.StartDate,
			"endDate":              phase.EndDate,
			"updatedAt":            time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": phase.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePhaseIndexes creates necessary indexes. Call during startup.
func EnsurePhaseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Unique ordering per plan
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "phaseOrder", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
