package resourceRepo

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

// SearchCriteria filters the resource catalog.
type SearchCriteria struct {
	Subject string
	Tag     string
	Type    string
}

// ResourceRepository stores writer-published reference materials.
type ResourceRepository interface {
	Create(ctx context.Context, res *models.Resource) error
	// GetByID fetches a resource and increments its view counter.
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]models.Resource, error)
	Update(ctx context.Context, res *models.Resource) error
	Delete(ctx context.Context, id string) error
}

// MongoResourceRepo implements ResourceRepository using MongoDB.
type MongoResourceRepo struct {
	coll *mongo.Collection
}

// NewMongoResourceRepo creates a new ResourceRepository backed by the
// "resources" collection.
func NewMongoResourceRepo() ResourceRepository {
	coll := database.DB().Collection("resources")
	return &MongoResourceRepo{coll: coll}
}

func (r *MongoResourceRepo) Create(ctx context.Context, res *models.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, res); err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

func (r *MongoResourceRepo) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$inc": bson.M{"views": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var res models.Resource
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("resource %s not found", id))
		}
		return nil, fmt.Errorf("failed to fetch resource with id %s: %w", id, err)
	}
	return &res, nil
}

func (r *MongoResourceRepo) Search(ctx context.Context, criteria SearchCriteria) ([]models.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if criteria.Subject != "" {
		filter["subject"] = bson.M{"$regex": criteria.Subject, "$options": "i"}
	}
	if criteria.Tag != "" {
		filter["tags"] = bson.M{"$regex": criteria.Tag, "$options": "i"}
	}
	if criteria.Type != "" {
		filter["type"] = criteria.Type
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("resource search query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var resources []models.Resource
	for cursor.Next(ctx) {
		var res models.Resource
		if err := cursor.Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to decode resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return resources, nil
}

func (r *MongoResourceRepo) Update(ctx context.Context, res *models.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":       res.Title,
		"subject":     res.Subject,
		"description": res.Description,
		"url":         res.URL,
		"type":        res.Type,
		"tags":        res.Tags,
		"updatedAt":   time.Now().UTC(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": res.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update resource with id %s: %w", res.ID, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError(fmt.Sprintf("resource %s not found", res.ID))
	}
	return nil
}

func (r *MongoResourceRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete resource with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFoundError(fmt.Sprintf("resource %s not found", id))
	}
	return nil
}
