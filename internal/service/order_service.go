package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/account"
	"github.com/nos-commerce-backend/internal/domain/audit"
	"github.com/nos-commerce-backend/internal/domain/cart"
	"github.com/nos-commerce-backend/internal/domain/order"
	"github.com/nos-commerce-backend/internal/domain/product"
	"github.com/nos-commerce-backend/internal/domain/shared"
	"github.com/nos-commerce-backend/internal/domain/wallet"
	"github.com/nos-commerce-backend/internal/notification"
	"github.com/nos-commerce-backend/internal/platform/cache"
	"github.com/shopspring/decimal"
)

// OrderView is an order with its purchased lines
type OrderView struct {
	Order   *order.Order    `json:"order"`
	Details []*order.Detail `json:"details"`
}

// OrderPage is one page of orders with the total match count
type OrderPage struct {
	Items []*order.Order `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// OrderService implements the order pipeline: creation from the cart and the
// lifecycle transitions through delivery or cancellation. Every mutation is
// one store transaction; cache eviction, audit and notification follow the
// commit and never fail it.
type OrderService struct {
	txRunner    TxRunner
	orders      order.Repository
	details     order.DetailRepository
	carts       cart.Repository
	products    product.Repository
	variants    product.VariantRepository
	accounts    account.Repository
	wallets     wallet.Repository
	walletTxns  wallet.TransactionRepository
	events      audit.Repository
	cache       cache.Cache
	invalidator *Invalidator
	dispatcher  *notification.Dispatcher
	shipping    ShippingCalculator
	queryTTL    time.Duration
	logger      *slog.Logger
}

func NewOrderService(
	txRunner TxRunner,
	orders order.Repository,
	details order.DetailRepository,
	carts cart.Repository,
	products product.Repository,
	variants product.VariantRepository,
	accounts account.Repository,
	wallets wallet.Repository,
	walletTxns wallet.TransactionRepository,
	events audit.Repository,
	c cache.Cache,
	invalidator *Invalidator,
	dispatcher *notification.Dispatcher,
	shipping ShippingCalculator,
	queryTTL time.Duration,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		txRunner:    txRunner,
		orders:      orders,
		details:     details,
		carts:       carts,
		products:    products,
		variants:    variants,
		accounts:    accounts,
		wallets:     wallets,
		walletTxns:  walletTxns,
		events:      events,
		cache:       c,
		invalidator: invalidator,
		dispatcher:  dispatcher,
		shipping:    shipping,
		queryTTL:    queryTTL,
		logger:      logger,
	}
}

// Create turns the user's cart into a PENDING order. Inside one store
// transaction it snapshots prices, decrements stock line by line, debits the
// wallet when that is the chosen payment method and drains the cart; any
// failure rolls the whole thing back.
func (s *OrderService) Create(ctx context.Context, userID, addressID, paymentMethodID uuid.UUID) (*OrderView, error) {
	acc, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	addr, err := s.accounts.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	pm, err := s.accounts.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o := &order.Order{
		ID:              uuid.New(),
		UserID:          userID,
		AddressID:       addr.ID,
		PaymentMethodID: pm.ID,
		Status:          order.StatusPending,
		OrderDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var details []*order.Detail
	var touchedProducts []string
	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		userCart, err := s.carts.WithTx(tx).GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, cart.ErrCartNotFound{}) {
				return order.ErrEmptyCart
			}
			return err
		}
		items, err := s.carts.WithTx(tx).ListItems(ctx, userCart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return order.ErrEmptyCart
		}

		subtotal := decimal.Zero
		details = details[:0]
		touchedProducts = touchedProducts[:0]
		for _, item := range items {
			variant, err := s.variants.WithTx(tx).GetByID(ctx, item.VariantID)
			if err != nil {
				return err
			}
			if err := s.products.WithTx(tx).DecrementStock(ctx, variant.ProductID, item.Quantity); err != nil {
				return err
			}
			touchedProducts = append(touchedProducts, variant.ProductID.String())

			d := &order.Detail{
				ID:        uuid.New(),
				OrderID:   o.ID,
				VariantID: variant.ID,
				Quantity:  item.Quantity,
				PriceEach: variant.Price,
			}
			details = append(details, d)
			subtotal = subtotal.Add(d.LineTotal())
		}

		fee, err := s.shipping.Fee(ctx, addr, subtotal)
		if err != nil {
			return err
		}
		o.ShippingFee = fee
		o.TotalAmount = subtotal.Add(fee)

		if err := s.orders.WithTx(tx).Create(ctx, o); err != nil {
			return err
		}
		for _, d := range details {
			if err := s.details.WithTx(tx).Create(ctx, d); err != nil {
				return err
			}
		}

		if pm.Name == account.WalletMethodName {
			if err := s.debitWallet(ctx, tx, userID, o); err != nil {
				return err
			}
		}

		return s.carts.WithTx(tx).DeleteAllItems(ctx, userCart.ID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationProduct, "", touchedProducts...)
	s.invalidator.Invalidate(MutationCart, userID.String())
	s.invalidator.Invalidate(MutationOrder, userID.String())
	if pm.Name == account.WalletMethodName {
		s.invalidator.Invalidate(MutationLedger, userID.String())
	}
	s.recordOrderEvent(userID, o.ID, audit.KindOrderCreated, map[string]any{"total": o.TotalAmount.String()})
	s.notifyOrder(acc, o, shared.EmailOrderConfirmed, nil)

	return &OrderView{Order: o, Details: details}, nil
}

// debitWallet settles a wallet-paid order within the ambient transaction.
// The ledger entry and the balance change commit with the order or not at all.
func (s *OrderService) debitWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID, o *order.Order) error {
	w, err := s.wallets.WithTx(tx).LockByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !w.CanDebit(o.TotalAmount) {
		return wallet.ErrInsufficientFunds
	}

	txn, err := wallet.NewTransaction(w.ID, wallet.TransactionTypePurchase, wallet.TransactionStatusCompleted, o.TotalAmount, &o.ID, "Order payment")
	if err != nil {
		return err
	}
	if err := s.walletTxns.WithTx(tx).Create(ctx, txn); err != nil {
		return err
	}
	return s.wallets.WithTx(tx).ApplyBalanceDelta(ctx, w.ID, txn.Amount)
}

// Accept moves a PENDING order to PROCESSING
func (s *OrderService) Accept(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.transition(ctx, orderID, order.StatusProcessing, nil)
	if err != nil {
		return nil, err
	}
	s.recordOrderEvent(o.UserID, o.ID, audit.KindOrderAccepted, nil)
	s.notifyOrderOwner(ctx, o, shared.EmailOrderAccepted, nil)
	return o, nil
}

// Ship moves a PROCESSING order to SHIPPED, stamping tracking data
func (s *OrderService) Ship(ctx context.Context, orderID uuid.UUID, trackingNumber string, eta *time.Time) (*order.Order, error) {
	shippedAt := time.Now()
	o, err := s.transition(ctx, orderID, order.StatusShipped, func(tx pgx.Tx) error {
		return s.orders.WithTx(tx).SetShippingInfo(ctx, orderID, trackingNumber, shippedAt, eta)
	})
	if err != nil {
		return nil, err
	}
	o.TrackingNumber = &trackingNumber
	o.ShippedDate = &shippedAt
	o.EstimatedDeliveryDate = eta

	s.recordOrderEvent(o.UserID, o.ID, audit.KindOrderShipped, map[string]any{"tracking_number": trackingNumber})
	s.notifyOrderOwner(ctx, o, shared.EmailOrderShipped, nil)
	return o, nil
}

// UpdateLocation records the courier position of a SHIPPED order. The
// requester must be the order's owner or an admin; a foreign order reads as
// not found.
func (s *OrderService) UpdateLocation(ctx context.Context, requesterID uuid.UUID, isAdmin bool, orderID uuid.UUID, latitude, longitude float64) error {
	return s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		o, err := s.orders.WithTx(tx).LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !isAdmin && o.UserID != requesterID {
			return order.ErrOrderNotFound{OrderID: orderID}
		}
		if o.Status != order.StatusShipped {
			return order.ErrInvalidTransition{From: o.Status, To: order.StatusShipped}
		}
		return s.orders.WithTx(tx).SetLocation(ctx, orderID, latitude, longitude)
	})
}

// Deliver moves a SHIPPED order to DELIVERED
func (s *OrderService) Deliver(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.transition(ctx, orderID, order.StatusDelivered, nil)
	if err != nil {
		return nil, err
	}
	s.recordOrderEvent(o.UserID, o.ID, audit.KindOrderDelivered, nil)
	s.notifyOrderOwner(ctx, o, shared.EmailOrderDelivered, nil)
	return o, nil
}

// Cancel aborts an order from any cancellable state. Stock returns to the
// shelf; a wallet-paid order is refunded in full and ends REFUNDED, anything
// else ends CANCELLED. All of it is one store transaction. Customers may only
// cancel their own orders; a foreign order reads as not found.
func (s *OrderService) Cancel(ctx context.Context, requesterID uuid.UUID, isAdmin bool, orderID uuid.UUID, reason string) (*order.Order, error) {
	var o *order.Order
	var refunded bool
	var touchedProducts []string
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		o, err = s.orders.WithTx(tx).LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !isAdmin && o.UserID != requesterID {
			return order.ErrOrderNotFound{OrderID: orderID}
		}
		if err := o.Transition(order.StatusCancelled); err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).UpdateStatus(ctx, orderID, order.StatusCancelled); err != nil {
			return err
		}

		// Return every purchased line to stock
		lines, err := s.details.WithTx(tx).ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		touchedProducts = touchedProducts[:0]
		for _, d := range lines {
			variant, err := s.variants.WithTx(tx).GetByID(ctx, d.VariantID)
			if err != nil {
				return err
			}
			if err := s.products.WithTx(tx).Restock(ctx, variant.ProductID, d.Quantity); err != nil {
				return err
			}
			touchedProducts = append(touchedProducts, variant.ProductID.String())
		}

		pm, err := s.accounts.WithTx(tx).GetPaymentMethod(ctx, o.PaymentMethodID)
		if err != nil {
			return err
		}
		if pm.Name != account.WalletMethodName {
			return nil
		}

		// Refund the full amount and finish on the refund edge
		w, err := s.wallets.WithTx(tx).LockByUserID(ctx, o.UserID)
		if err != nil {
			return err
		}
		desc := "Order refund"
		if reason != "" {
			desc = "Order refund: " + reason
		}
		txn, err := wallet.NewTransaction(w.ID, wallet.TransactionTypeRefund, wallet.TransactionStatusCompleted, o.TotalAmount, &o.ID, desc)
		if err != nil {
			return err
		}
		if err := s.walletTxns.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}
		if err := s.wallets.WithTx(tx).ApplyBalanceDelta(ctx, w.ID, txn.Amount); err != nil {
			return err
		}
		if err := o.Transition(order.StatusRefunded); err != nil {
			return err
		}
		refunded = true
		return s.orders.WithTx(tx).UpdateStatus(ctx, orderID, order.StatusRefunded)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationProduct, "", touchedProducts...)
	s.invalidator.Invalidate(MutationOrder, o.UserID.String())
	if refunded {
		s.invalidator.Invalidate(MutationLedger, o.UserID.String())
	}
	payload := map[string]any{"refunded": refunded}
	if reason != "" {
		payload["reason"] = reason
	}
	s.recordOrderEvent(o.UserID, o.ID, audit.KindOrderCancelled, payload)
	s.notifyOrderOwner(ctx, o, shared.EmailOrderCancelled, map[string]any{"reason": reason, "refunded": refunded})

	return o, nil
}

// transition runs a lock-validate-update cycle for a simple status move,
// with an optional extra step inside the same transaction
func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, target order.Status, extra func(tx pgx.Tx) error) (*order.Order, error) {
	var o *order.Order
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		o, err = s.orders.WithTx(tx).LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Transition(target); err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).UpdateStatus(ctx, orderID, target); err != nil {
			return err
		}
		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(MutationOrder, o.UserID.String())
	return o, nil
}

// Get returns an order with its lines. Customers only see their own orders;
// a foreign order reads as not found rather than forbidden.
func (s *OrderService) Get(ctx context.Context, requesterID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*OrderView, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != requesterID {
		return nil, order.ErrOrderNotFound{OrderID: orderID}
	}
	details, err := s.details.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: o, Details: details}, nil
}

// List retrieves orders matching the filter, caching each page under a
// parameter-hashed key. User-scoped and admin-wide listings live under
// separate key roots so they can be evicted independently.
func (s *OrderService) List(ctx context.Context, filter order.SearchFilter, page shared.PageRequest) (*OrderPage, error) {
	page = page.Normalize()

	root := orderSearchPrefix
	if filter.UserID != nil {
		root = orderUserPrefix + ":" + filter.UserID.String()
	}
	key := cache.DerivedQueryKey(root, orderFilterParams(filter, page)...)

	if data, err := s.cache.GetValue(ctx, key); err == nil {
		var cached OrderPage
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Cache read failed, falling back to store", "key", key, "error", err)
	}

	items, err := s.orders.List(ctx, filter, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &OrderPage{Items: items, Total: total, Page: page.Page, Size: page.Size}
	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.SetValue(ctx, key, data, s.queryTTL); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

// History lists the audit trail of one order
func (s *OrderService) History(ctx context.Context, orderID uuid.UUID, page shared.PageRequest) ([]*audit.Event, error) {
	page = page.Normalize()
	return s.events.ListByOrderID(ctx, orderID, page.Size, page.Offset())
}

func orderFilterParams(filter order.SearchFilter, page shared.PageRequest) []string {
	params := []string{strconv.Itoa(page.Page), strconv.Itoa(page.Size), page.Sort}
	if filter.Status != nil {
		params = append(params, "status="+string(*filter.Status))
	}
	if filter.FromDate != nil {
		params = append(params, "from="+filter.FromDate.Format(time.RFC3339))
	}
	if filter.ToDate != nil {
		params = append(params, "to="+filter.ToDate.Format(time.RFC3339))
	}
	return params
}

func (s *OrderService) recordOrderEvent(userID, orderID uuid.UUID, kind audit.Kind, payload map[string]any) {
	e := audit.NewEvent(kind, userID)
	e.OrderID = &orderID
	e.Payload = payload

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.events.Record(ctx, e); err != nil {
		s.logger.Warn("Failed to record audit event", "kind", string(kind), "error", err)
	}
}

func (s *OrderService) notifyOrder(acc *account.Account, o *order.Order, kind shared.EmailKind, extra map[string]any) {
	data := map[string]any{
		"full_name": acc.FullName,
		"order_id":  o.ID.String(),
		"total":     o.TotalAmount.String(),
		"status":    string(o.Status),
	}
	for k, v := range extra {
		data[k] = v
	}
	s.dispatcher.Send(shared.EmailMessage{
		Recipient: acc.Email,
		Kind:      kind,
		Data:      data,
	})
}

func (s *OrderService) notifyOrderOwner(ctx context.Context, o *order.Order, kind shared.EmailKind, extra map[string]any) {
	acc, err := s.accounts.GetByID(ctx, o.UserID)
	if err != nil {
		s.logger.Warn("Failed to resolve account for notification", "user_id", o.UserID.String(), "error", err)
		return
	}
	s.notifyOrder(acc, o, kind, extra)
}
