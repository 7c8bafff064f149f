package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Transitions only move forward along
// the graph in transitions below; nothing skips a state or moves backward.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// transitions is the full forward graph. REFUNDED is reachable only from
// CANCELLED, and only as the effect of refunding a wallet-paid order; no
// public operation targets it directly.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusCancelled:  {StatusRefunded},
	StatusDelivered:  {},
	StatusRefunded:   {},
}

// CanTransition reports whether moving from s to target is allowed
func (s Status) CanTransition(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Cancellable reports whether a cancel operation is permitted from s
func (s Status) Cancellable() bool {
	return s.CanTransition(StatusCancelled)
}

// Order is the aggregate root of a purchase. TotalAmount includes the
// shipping fee and is fixed at creation.
type Order struct {
	ID                    uuid.UUID       `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	AddressID             uuid.UUID       `json:"address_id"`
	PaymentMethodID       uuid.UUID       `json:"payment_method_id"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	ShippingFee           decimal.Decimal `json:"shipping_fee"`
	Status                Status          `json:"status"`
	OrderDate             time.Time       `json:"order_date"`
	ShippedDate           *time.Time      `json:"shipped_date,omitempty"`
	TrackingNumber        *string         `json:"tracking_number,omitempty"`
	EstimatedDeliveryDate *time.Time      `json:"estimated_delivery_date,omitempty"`
	Latitude              *float64        `json:"latitude,omitempty"`
	Longitude             *float64        `json:"longitude,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Transition moves the order to target, or fails with ErrInvalidTransition
// leaving the order untouched
func (o *Order) Transition(target Status) error {
	if !o.Status.CanTransition(target) {
		return ErrInvalidTransition{From: o.Status, To: target}
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Detail is one purchased line. PriceEach is the unit price snapshotted at
// purchase time; it is never recomputed from the variant afterwards.
type Detail struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	VariantID uuid.UUID       `json:"product_variant_id"`
	Quantity  int             `json:"quantity"`
	PriceEach decimal.Decimal `json:"price_each"`
}

// LineTotal returns quantity x unit price
func (d *Detail) LineTotal() decimal.Decimal {
	return d.PriceEach.Mul(decimal.NewFromInt(int64(d.Quantity)))
}
