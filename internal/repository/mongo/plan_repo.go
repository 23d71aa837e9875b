// internal/repository/mongo/plan_repo.go
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

const planCollectionName = "quit_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new QuitPlan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan with version 1.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.QuitPlan) (primitive.ObjectID, error) {
	if plan.MemberID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan requires memberId")
	}
	plan.ID = primitive.NewObjectID()
	plan.Version = 1
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.QuitPlan, error) {
	var plan domain.QuitPlan
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Update replaces the whole plan record, guarded by the version the caller
// read. A stale version yields ErrConflict so the caller can refetch and
// retry; a missing id yields ErrNotFound.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.QuitPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}

	readVersion := plan.Version
	plan.Version = readVersion + 1
	plan.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": plan.ID, "version": readVersion}
	result, err := r.collection.ReplaceOne(ctx, filter, plan)
	if err != nil {
		plan.Version = readVersion
		return err
	}
	if result.MatchedCount == 0 {
		plan.Version = readVersion
		// Distinguish a missing plan from a stale version.
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": plan.ID})
		if countErr == nil && count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

// GetNewestByMemberID retrieves the member's plan carrying the newest flag.
func (r *mongoPlanRepository) GetNewestByMemberID(ctx context.Context, memberID primitive.ObjectID) (*domain.QuitPlan, error) {
	var plan domain.QuitPlan
	filter := bson.M{"memberId": memberID, "isNewest": true}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByMemberID retrieves the member's plans, newest start date first,
// paginated. page is 1-based.
func (r *mongoPlanRepository) GetByMemberID(ctx context.Context, memberID primitive.ObjectID, page, pageSize int) ([]domain.QuitPlan, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	filter := bson.M{"memberId": memberID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64(page-1) * int64(pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var plans []domain.QuitPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, 0, err
	}
	// Empty slice when no plans exist (not an error)
	return plans, total, nil
}

// ClearNewestForMember drops the newest flag on every plan of the member
// except the one being promoted.
func (r *mongoPlanRepository) ClearNewestForMember(ctx context.Context, memberID, exceptPlanID primitive.ObjectID) error {
	filter := bson.M{
		"memberId": memberID,
		"isNewest": true,
		"_id":      bson.M{"$ne": exceptPlanID},
	}
	update := bson.M{"$set": bson.M{"isNewest": false, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// GetOverdueActive returns ACTIVE plans whose endDate lies before the cutoff.
func (r *mongoPlanRepository) GetOverdueActive(ctx context.Context, before time.Time) ([]domain.QuitPlan, error) {
	filter := bson.M{
		"status":  domain.StatusActive,
		"endDate": bson.M{"$lt": before},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.QuitPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Main query pattern: a member's plans, newest first
			Keys:    bson.D{{Key: "memberId", Value: 1}, {Key: "startDate", Value: -1}},
			Options: options.Index(),
		},
		{
			// Newest-flag lookup
			Keys:    bson.D{{Key: "memberId", Value: 1}, {Key: "isNewest", Value: 1}},
			Options: options.Index(),
		},
		{
			// Expiry sweep
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
