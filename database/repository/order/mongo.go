package orderRepo

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

// MongoOrderRepo implements OrderRepository using MongoDB. It holds the
// writers collection as well so that transitions touching the capacity
// ledger run in one session transaction.
type MongoOrderRepo struct {
	orderColl  *mongo.Collection
	writerColl *mongo.Collection
}

// NewMongoOrderRepo creates a new OrderRepository backed by the "orders" and
// "writers" collections.
func NewMongoOrderRepo() OrderRepository {
	db := database.DB()
	return &MongoOrderRepo{
		orderColl:  db.Collection("orders"),
		writerColl: db.Collection("writers"),
	}
}

func (r *MongoOrderRepo) Create(ctx context.Context, o *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.orderColl.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var order models.Order
	if err := r.orderColl.FindOne(ctx, bson.M{"id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", id))
		}
		return nil, fmt.Errorf("failed to fetch order with id %s: %w", id, err)
	}
	return &order, nil
}

func (r *MongoOrderRepo) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Owner != "" {
		query["owner"] = filter.Owner
	}
	if filter.State != "" {
		query["status.state"] = filter.State
	}
	if filter.Kind != "" {
		query["kind"] = filter.Kind
	}

	total, err := r.orderColl.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.orderColl.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	for cursor.Next(ctx) {
		var o models.Order
		if err := cursor.Decode(&o); err != nil {
			return nil, 0, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %w", err)
	}
	return orders, total, nil
}

func (r *MongoOrderRepo) UpdateEditable(ctx context.Context, o *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":           o.ID,
		"status.state": bson.M{"$nin": terminalStates()},
	}
	update := bson.M{"$set": bson.M{
		"subject":      o.Subject,
		"instructions": o.Instructions,
		"deadline":     o.Deadline,
		"attachments":  o.Attachments,
		"paperType":    o.PaperType,
		"pageCount":    o.PageCount,
		"slideCount":   o.SlideCount,
		"toolName":     o.ToolName,
		"updatedAt":    time.Now().UTC(),
	}}
	result, err := r.orderColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order with id %s: %w", o.ID, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewInvalidTransitionError("order is terminal and can no longer be edited")
	}
	return nil
}

func (r *MongoOrderRepo) AppendResponses(ctx context.Context, orderID string, responses []models.OrderResponse) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":           orderID,
		"status.state": bson.M{"$in": bson.A{models.StateAssigned, models.StatePending}},
	}
	update := bson.M{
		"$push": bson.M{"responses": bson.M{"$each": responses}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.orderColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to append responses to order %s: %w", orderID, err)
	}
	if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
		return nil, getErr
	}
	return nil, utils.NewInvalidTransitionError("responses can only be delivered to assigned or pending orders")
}

func (r *MongoOrderRepo) MarkExpired(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":           orderID,
		"status.state": bson.M{"$nin": terminalStates()},
	}
	update := bson.M{"$set": bson.M{
		"status.state":  models.StateExpired,
		"status.reason": models.ExpiredReason,
		"updatedAt":     time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.orderColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to expire order %s: %w", orderID, err)
	}
	// Already terminal: the sweep is a no-op, return the current document.
	return r.GetByID(ctx, orderID)
}

func terminalStates() bson.A {
	return bson.A{models.StateCompleted, models.StateCancelled, models.StateExpired}
}
