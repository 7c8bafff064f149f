package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind labels the mutation an event records
type Kind string

const (
	KindOrderCreated       Kind = "ORDER_CREATED"
	KindOrderAccepted      Kind = "ORDER_ACCEPTED"
	KindOrderShipped       Kind = "ORDER_SHIPPED"
	KindOrderDelivered     Kind = "ORDER_DELIVERED"
	KindOrderCancelled     Kind = "ORDER_CANCELLED"
	KindWalletDeposit      Kind = "WALLET_DEPOSIT"
	KindWalletWithdrawal   Kind = "WALLET_WITHDRAWAL"
	KindWalletActivated    Kind = "WALLET_ACTIVATED"
	KindLedgerCorrection   Kind = "LEDGER_CORRECTION"
	KindLedgerEntryDeleted Kind = "LEDGER_ENTRY_DELETED"
)

// Event is one audit trail record. Events are written post-commit and
// best-effort; they describe the consistent core but are not part of it.
type Event struct {
	ID        uuid.UUID      `json:"id" bson:"event_id"`
	Kind      Kind           `json:"kind" bson:"kind"`
	UserID    uuid.UUID      `json:"user_id" bson:"user_id"`
	OrderID   *uuid.UUID     `json:"order_id,omitempty" bson:"order_id,omitempty"`
	WalletID  *uuid.UUID     `json:"wallet_id,omitempty" bson:"wallet_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// NewEvent stamps a fresh event
func NewEvent(kind Kind, userID uuid.UUID) *Event {
	return &Event{
		ID:        uuid.New(),
		Kind:      kind,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// Repository manages audit trail persistence
type Repository interface {
	Record(ctx context.Context, e *Event) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]*Event, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Event, error)
}
