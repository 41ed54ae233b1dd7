package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fooddash/payment-service/pkg/outbox"
)

// OutboxStore backs the relay with the settlement outbox collection.
// Claiming is one document at a time via FindOneAndUpdate, which is atomic
// per document, so two relays never dispatch the same event inside a lease.
type OutboxStore struct {
	log  *slog.Logger
	coll *mongo.Collection
}

func NewOutboxStore(log *slog.Logger, db *mongo.Database) *OutboxStore {
	return &OutboxStore{log: log, coll: db.Collection("outbox")}
}

type outboxDoc struct {
	ID            string            `bson:"_id"`
	AggregateType string            `bson:"aggregateType"`
	AggregateID   string            `bson:"aggregateId"`
	Type          string            `bson:"type"`
	Payload       []byte            `bson:"payload"`
	Headers       map[string]string `bson:"headers"`
	Traceparent   string            `bson:"traceparent"`
	Status        string            `bson:"status"`
	RetryCount    int               `bson:"retryCount"`
	CreatedAt     time.Time         `bson:"createdAt"`
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	now := time.Now().UTC()
	after := options.After
	opts := &options.FindOneAndUpdateOptions{
		ReturnDocument: &after,
		Sort:           bson.M{"createdAt": 1},
	}

	claimable := bson.M{"$or": bson.A{
		bson.M{"status": "pending"},
		bson.M{"status": "in_progress", "leaseUntil": bson.M{"$lt": now}},
	}}
	update := bson.M{"$set": bson.M{
		"status":     "in_progress",
		"relayId":    relayID,
		"leaseUntil": now.Add(lease),
	}}

	var events []outbox.Event
	for len(events) < batchSize {
		var doc outboxDoc
		err := s.coll.FindOneAndUpdate(ctx, claimable, update, opts).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			break
		}
		if err != nil {
			return events, err
		}
		events = append(events, outbox.Event{
			ID:            doc.ID,
			AggregateType: doc.AggregateType,
			AggregateID:   doc.AggregateID,
			Type:          doc.Type,
			Payload:       doc.Payload,
			Headers:       doc.Headers,
			Traceparent:   doc.Traceparent,
			CreatedAt:     doc.CreatedAt,
			Status:        outbox.StatusInProgress,
			RelayID:       relayID,
			RetryCount:    doc.RetryCount,
		})
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []string) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": "sent"}},
	)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"status": "failed", "lastError": errMsg},
			"$inc": bson.M{"retryCount": 1},
		},
	)
	return err
}
