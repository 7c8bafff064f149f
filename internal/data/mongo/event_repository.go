package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nos-commerce-backend/internal/domain/audit"
)

const (
	// EventCollectionName is the name of the audit event collection in MongoDB
	EventCollectionName = "audit_events"
)

// EventRepository implements the audit.Repository interface for MongoDB
type EventRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewEventRepository creates a new MongoDB audit event repository
func NewEventRepository(logger *slog.Logger, db *mongo.Database) audit.Repository {
	return &EventRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends an audit event. The trail is append-only; events are never
// updated or deleted.
func (r *EventRepository) Record(ctx context.Context, e *audit.Event) error {
	collection := r.db.Collection(EventCollectionName)

	_, err := collection.InsertOne(ctx, e)
	if err != nil {
		r.logger.Error("Failed to record audit event",
			"kind", string(e.Kind),
			"error", err)
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}

// ListByOrderID retrieves paginated audit events for an order.
// Results are sorted by creation time in descending order (newest first).
func (r *EventRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]*audit.Event, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"order_id": orderID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit events",
			"order_id", orderID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*audit.Event
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events",
			"order_id", orderID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}

// ListByUserID retrieves paginated audit events for a user.
// Results are sorted by creation time in descending order (newest first).
func (r *EventRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*audit.Event, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"user_id": userID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit events",
			"user_id", userID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*audit.Event
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events",
			"user_id", userID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}
