package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fooddash/payment-service/internal/settlement/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
)

type Repository struct {
	log         *slog.Logger
	orders      *mongo.Collection
	users       *mongo.Collection
	foods       *mongo.Collection
	restaurants *mongo.Collection
	outbox      *mongo.Collection
}

func NewRepository(log *slog.Logger, db *mongo.Database) *Repository {
	return &Repository{
		log:         log,
		orders:      db.Collection("orders"),
		users:       db.Collection("users"),
		foods:       db.Collection("foods"),
		restaurants: db.Collection("restaurants"),
		outbox:      db.Collection("outbox"),
	}
}

func (r *Repository) GetOrder(ctx context.Context, id primitive.ObjectID) (domain.Order, error) {
	var o domain.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Order{}, apperror.Newf(apperror.KindNotFound, "mongo.GetOrder", "order %s", id.Hex())
	}
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// SettleWithOutbox flips the order's payment status to Completed and
// enqueues the settled event for the relay. The two writes are not inside a
// Mongo transaction; the recovery path for a failure between them is the
// webhook retry: returning an error withholds the ack, the provider
// redelivers, and both writes re-run. That re-run is safe because the
// status write is a constant overwrite and the outbox insert is keyed by a
// deterministic id derived from the order, so a replay does not enqueue a
// second event.
func (r *Repository) SettleWithOutbox(ctx context.Context, id primitive.ObjectID, eventType string, payload []byte, headers map[string]string, traceparent string) (domain.Order, error) {
	after := options.After
	opts := &options.FindOneAndUpdateOptions{ReturnDocument: &after}

	var updated domain.Order
	err := r.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"paymentStatus": domain.StatusCompleted,
			"updatedAt":     time.Now().UTC(),
		}},
		opts,
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Order{}, apperror.Newf(apperror.KindNotFound, "mongo.SettleWithOutbox", "order %s", id.Hex())
	}
	if err != nil {
		return domain.Order{}, err
	}

	_, err = r.outbox.UpdateOne(ctx,
		bson.M{"_id": eventType + ":" + id.Hex()},
		bson.M{"$setOnInsert": bson.M{
			"aggregateType": "order",
			"aggregateId":   id.Hex(),
			"type":          eventType,
			"payload":       payload,
			"headers":       headers,
			"traceparent":   traceparent,
			"status":        "pending",
			"retryCount":    0,
			"createdAt":     time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Order is already marked paid; returning the error withholds the
		// webhook ack so the provider's redelivery retries this insert.
		r.log.Error("outbox enqueue failed", "order_id", id.Hex(), "err", err)
		return domain.Order{}, err
	}

	return updated, nil
}

func (r *Repository) GetUser(ctx context.Context, id primitive.ObjectID) (domain.User, error) {
	var u domain.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, apperror.Newf(apperror.KindNotFound, "mongo.GetUser", "user %s", id.Hex())
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *Repository) GetFood(ctx context.Context, id primitive.ObjectID) (domain.Food, error) {
	var f domain.Food
	err := r.foods.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"imageUrl": 1})).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Food{}, apperror.Newf(apperror.KindNotFound, "mongo.GetFood", "food %s", id.Hex())
	}
	if err != nil {
		return domain.Food{}, err
	}
	return f, nil
}

func (r *Repository) GetRestaurant(ctx context.Context, id primitive.ObjectID) (domain.Restaurant, error) {
	var res domain.Restaurant
	err := r.restaurants.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"owner": 1})).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Restaurant{}, apperror.Newf(apperror.KindNotFound, "mongo.GetRestaurant", "restaurant %s", id.Hex())
	}
	if err != nil {
		return domain.Restaurant{}, err
	}
	return res, nil
}
