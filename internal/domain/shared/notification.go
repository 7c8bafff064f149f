package shared

// EmailKind identifies the template a notification renders with
type EmailKind string

const (
	EmailOrderConfirmed          EmailKind = "ORDER_CONFIRMED"
	EmailOrderAccepted           EmailKind = "ORDER_ACCEPTED"
	EmailOrderShipped            EmailKind = "ORDER_SHIPPED"
	EmailOrderDelivered          EmailKind = "ORDER_DELIVERED"
	EmailOrderCancelled          EmailKind = "ORDER_CANCELLED"
	EmailTransactionNotification EmailKind = "TRANSACTION_NOTIFICATION"
)

// EmailMessage is the payload published to the notification topic.
// Delivery is fire-and-forget, at most once; producers never wait on it.
type EmailMessage struct {
	Recipient string         `json:"recipient"`
	Kind      EmailKind      `json:"kind"`
	Data      map[string]any `json:"data,omitempty"`
}
