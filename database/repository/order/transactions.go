package orderRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	writerRepo "easypro/database/repository/writer"
	"easypro/models"
	"easypro/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// withTransaction runs fn inside a Mongo session transaction, aborting on
// error. Domain errors pass through untouched so callers keep their codes.
func (r *MongoOrderRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := r.orderColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// debitWriter reserves a slot inside the transaction, distinguishing a
// missing writer from an exhausted ledger.
func (r *MongoOrderRepo) debitWriter(sc mongo.SessionContext, writerID string, deadline time.Time) (*models.Writer, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var writer models.Writer
	err := r.writerColl.FindOneAndUpdate(
		sc,
		writerRepo.DebitFilter(writerID, deadline),
		writerRepo.DebitPipeline(deadline),
		opts,
	).Decode(&writer)
	if err == nil {
		return &writer, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to debit writer %s: %w", writerID, err)
	}
	count, countErr := r.writerColl.CountDocuments(sc, bson.M{"id": writerID})
	if countErr != nil {
		return nil, fmt.Errorf("failed to look up writer %s: %w", writerID, countErr)
	}
	if count == 0 {
		return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", writerID))
	}
	return nil, utils.NewCapacityExhaustedError("writer has no available slot for this deadline")
}

func (r *MongoOrderRepo) creditWriter(sc mongo.SessionContext, writerID string, clearAlways bool) (*models.Writer, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var writer models.Writer
	err := r.writerColl.FindOneAndUpdate(sc, bson.M{"id": writerID}, writerRepo.CreditPipeline(clearAlways), opts).Decode(&writer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", writerID))
		}
		return nil, fmt.Errorf("failed to credit writer %s: %w", writerID, err)
	}
	return &writer, nil
}

// CreateWithDebit inserts a technical order and debits its writer as one
// transaction; a failed debit persists nothing.
func (r *MongoOrderRepo) CreateWithDebit(ctx context.Context, o *models.Order) (*models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var writer *models.Writer
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		w, err := r.debitWriter(sc, o.AssignedWriter, o.Deadline)
		if err != nil {
			return err
		}
		if _, err := r.orderColl.InsertOne(sc, o); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		writer = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return writer, nil
}

func (r *MongoOrderRepo) Assign(ctx context.Context, orderID, writerID, reason string) (*models.Order, *models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		order  *models.Order
		writer *models.Writer
	)
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		current, err := r.getForUpdate(sc, orderID)
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status.State, models.StateAssigned) {
			return utils.NewInvalidTransitionError(
				fmt.Sprintf("cannot assign writer to %s order", current.Status.State))
		}

		w, err := r.debitWriter(sc, writerID, current.Deadline)
		if err != nil {
			return err
		}

		filter := bson.M{
			"id":           orderID,
			"status.state": current.Status.State,
		}
		update := bson.M{"$set": bson.M{
			"assignedWriter": writerID,
			"status.state":   models.StateAssigned,
			"status.reason":  reason,
			"updatedAt":      time.Now().UTC(),
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var updated models.Order
		if err := r.orderColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&updated); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.NewInvalidTransitionError("order state changed concurrently")
			}
			return fmt.Errorf("failed to assign order %s: %w", orderID, err)
		}
		order, writer = &updated, w
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, writer, nil
}

func (r *MongoOrderRepo) Complete(ctx context.Context, orderID, reason string, at time.Time) (*models.Order, *models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		order  *models.Order
		writer *models.Writer
	)
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		current, err := r.getForUpdate(sc, orderID)
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status.State, models.StateCompleted) {
			return utils.NewInvalidTransitionError(
				fmt.Sprintf("cannot complete order with status: %s", current.Status.State))
		}
		if current.AssignedWriter == "" {
			return utils.NewInvalidTransitionError("no writer assigned to this order")
		}

		filter := bson.M{
			"id":           orderID,
			"status.state": current.Status.State,
		}
		update := bson.M{"$set": bson.M{
			"status.state":       models.StateCompleted,
			"status.reason":      reason,
			"status.completedAt": at,
			"updatedAt":          time.Now().UTC(),
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var updated models.Order
		if err := r.orderColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&updated); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.NewInvalidTransitionError("order state changed concurrently")
			}
			return fmt.Errorf("failed to complete order %s: %w", orderID, err)
		}

		w, err := r.creditWriter(sc, current.AssignedWriter, false)
		if err != nil {
			return err
		}
		order, writer = &updated, w
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, writer, nil
}

func (r *MongoOrderRepo) Cancel(ctx context.Context, orderID, reason string) (*models.Order, *models.Writer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		order  *models.Order
		writer *models.Writer
	)
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		current, err := r.getForUpdate(sc, orderID)
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status.State, models.StateCancelled) {
			return utils.NewInvalidTransitionError(
				fmt.Sprintf("cannot cancel order with status: %s", current.Status.State))
		}

		filter := bson.M{
			"id":           orderID,
			"status.state": current.Status.State,
		}
		update := bson.M{"$set": bson.M{
			"status.state":  models.StateCancelled,
			"status.reason": reason,
			"updatedAt":     time.Now().UTC(),
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var updated models.Order
		if err := r.orderColl.FindOneAndUpdate(sc, filter, update, opts).Decode(&updated); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return utils.NewInvalidTransitionError("order state changed concurrently")
			}
			return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
		}

		// Orders holding a debited slot give it back. Technical orders
		// additionally clear nextAvailable unconditionally.
		if holdsSlot(current) {
			w, err := r.creditWriter(sc, current.AssignedWriter, current.Kind == models.KindTechnical)
			if err != nil {
				return err
			}
			writer = w
		}
		order = &updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, writer, nil
}

// holdsSlot reports whether an order's writer currently holds a debited
// slot: capacity is reserved at assignment (or at creation for technical
// orders) and released at completion or cancellation.
func holdsSlot(o *models.Order) bool {
	if o.AssignedWriter == "" {
		return false
	}
	return o.Status.State == models.StateAssigned || o.Status.State == models.StatePending
}

func (r *MongoOrderRepo) getForUpdate(sc mongo.SessionContext, orderID string) (*models.Order, error) {
	var order models.Order
	if err := r.orderColl.FindOne(sc, bson.M{"id": orderID}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
		}
		return nil, fmt.Errorf("failed to fetch order with id %s: %w", orderID, err)
	}
	return &order, nil
}
