package writerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"easypro/database"
	"easypro/models"
	"easypro/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWriterRepo implements WriterRepository using MongoDB.
type MongoWriterRepo struct {
	coll *mongo.Collection
}

// NewMongoWriterRepo creates a new WriterRepository backed by the "writers"
// collection.
func NewMongoWriterRepo() WriterRepository {
	coll := database.DB().Collection("writers")
	return &MongoWriterRepo{coll: coll}
}

func (r *MongoWriterRepo) Create(ctx context.Context, w *models.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, w); err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	return nil
}

func (r *MongoWriterRepo) GetByID(ctx context.Context, id string) (*models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var writer models.Writer
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&writer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
		}
		return nil, fmt.Errorf("failed to fetch writer with id %s: %w", id, err)
	}
	return &writer, nil
}

func (r *MongoWriterRepo) FindByEmailOrName(ctx context.Context, email, fullName string) (*models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"fullName": fullName},
	}}
	var writer models.Writer
	if err := r.coll.FindOne(ctx, filter).Decode(&writer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up writer: %w", err)
	}
	return &writer, nil
}

// Search lists writers matching the criteria, sorted by rating descending
// then remaining slots descending. No matches are filtered out by rating.
func (r *MongoWriterRepo) Search(ctx context.Context, criteria SearchCriteria) ([]models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if criteria.Subject != "" {
		filter["$or"] = bson.A{
			bson.M{"skills": bson.M{"$elemMatch": bson.M{"skill": bson.M{"$regex": criteria.Subject, "$options": "i"}}}},
			bson.M{"familiarWith": bson.M{"$regex": criteria.Subject, "$options": "i"}},
		}
	}
	if criteria.Deadline != nil {
		filter["slotsLeft"] = bson.M{"$gt": 0}
		filter["$and"] = bson.A{
			bson.M{"$or": bson.A{
				bson.M{"nextAvailable": nil},
				bson.M{"nextAvailable": bson.M{"$lte": *criteria.Deadline}},
			}},
		}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "rating.average", Value: -1},
		{Key: "slotsLeft", Value: -1},
	})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("writer search query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var writers []models.Writer
	for cursor.Next(ctx) {
		var w models.Writer
		if err := cursor.Decode(&w); err != nil {
			return nil, fmt.Errorf("failed to decode writer: %w", err)
		}
		writers = append(writers, w)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return writers, nil
}

// UpdateProfile sets only the operator-managed profile fields, leaving the
// capacity ledger and rating untouched.
func (r *MongoWriterRepo) UpdateProfile(ctx context.Context, w *models.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	update := bson.M{"$set": bson.M{
		"fullName":     w.FullName,
		"email":        w.Email,
		"profileImage": w.ProfileImage,
		"skills":       w.Skills,
		"familiarWith": w.FamiliarWith,
		"education":    w.Education,
		"bio":          w.Bio,
		"updatedAt":    time.Now().UTC(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": w.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update writer with id %s: %w", w.ID, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError(fmt.Sprintf("writer %s not found", w.ID))
	}
	return nil
}

func (r *MongoWriterRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete writer with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
	}
	return nil
}

// DebitFilter matches a writer only while the ledger permits taking an order
// with the given deadline. Shared with the order repository's transactions.
func DebitFilter(id string, deadline time.Time) bson.M {
	return bson.M{
		"id":        id,
		"slotsLeft": bson.M{"$gt": 0},
		"$or": bson.A{
			bson.M{"nextAvailable": nil},
			bson.M{"nextAvailable": bson.M{"$lte": deadline}},
		},
	}
}

// DebitPipeline decrements slotsLeft and, when the ledger empties, stamps
// nextAvailable with the exhausting order's deadline.
func DebitPipeline(deadline time.Time) mongo.Pipeline {
	now := time.Now().UTC()
	return mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "slotsLeft", Value: bson.D{{Key: "$subtract", Value: bson.A{"$slotsLeft", 1}}}},
			{Key: "updatedAt", Value: now},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "nextAvailable", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$slotsLeft", 0}}},
				deadline,
				"$nextAvailable",
			}}}},
		}}},
	}
}

// CreditPipeline increments slotsLeft clamped at maxSlots. clearAlways
// drops nextAvailable unconditionally (technical cancellation); otherwise it
// is cleared only when the ledger is restored to full.
func CreditPipeline(clearAlways bool) mongo.Pipeline {
	now := time.Now().UTC()
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "slotsLeft", Value: bson.D{{Key: "$min", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{"$slotsLeft", 1}}},
				"$maxSlots",
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
	if clearAlways {
		pipeline = append(pipeline, bson.D{{Key: "$set", Value: bson.D{
			{Key: "nextAvailable", Value: nil},
		}}})
	} else {
		pipeline = append(pipeline, bson.D{{Key: "$set", Value: bson.D{
			{Key: "nextAvailable", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$slotsLeft", "$maxSlots"}}},
				nil,
				"$nextAvailable",
			}}}},
		}}},
		)
	}
	return pipeline
}

func (r *MongoWriterRepo) TryDebit(ctx context.Context, id string, deadline time.Time) (*models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var writer models.Writer
	err := r.coll.FindOneAndUpdate(ctx, DebitFilter(id, deadline), DebitPipeline(deadline), opts).Decode(&writer)
	if err == nil {
		return &writer, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to debit writer %s: %w", id, err)
	}

	// Distinguish a missing writer from one whose ledger refused the debit.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, utils.NewCapacityExhaustedError("writer has no available slot for this deadline")
}

func (r *MongoWriterRepo) Credit(ctx context.Context, id string) (*models.Writer, error) {
	return r.credit(ctx, id, false)
}

func (r *MongoWriterRepo) CreditAndClear(ctx context.Context, id string) (*models.Writer, error) {
	return r.credit(ctx, id, true)
}

func (r *MongoWriterRepo) credit(ctx context.Context, id string, clearAlways bool) (*models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var writer models.Writer
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, CreditPipeline(clearAlways), opts).Decode(&writer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
		}
		return nil, fmt.Errorf("failed to credit writer %s: %w", id, err)
	}
	return &writer, nil
}

func (r *MongoWriterRepo) ApplyReview(ctx context.Context, id string, reviewMean float64) (*models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Fold the mean in-store so concurrent reviews never lose an update.
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "rating", Value: bson.D{
				{Key: "average", Value: bson.D{{Key: "$divide", Value: bson.A{
					bson.D{{Key: "$add", Value: bson.A{
						bson.D{{Key: "$multiply", Value: bson.A{"$rating.average", "$rating.count"}}},
						reviewMean,
					}}},
					bson.D{{Key: "$add", Value: bson.A{"$rating.count", 1}}},
				}}}},
				{Key: "count", Value: bson.D{{Key: "$add", Value: bson.A{"$rating.count", 1}}}},
			}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var writer models.Writer
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, pipeline, opts).Decode(&writer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
		}
		return nil, fmt.Errorf("failed to apply review to writer %s: %w", id, err)
	}
	return &writer, nil
}
