// Package service implements the application operations on top of the domain
// repositories: the order pipeline, the wallet ledger, the shopping cart, the
// catalog read/write paths and the cache invalidation that ties them to the
// Redis store.
package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nos-commerce-backend/internal/domain/account"
	"github.com/shopspring/decimal"
)

// TxRunner runs a function inside a single store transaction. Satisfied by
// persistence.PostgresDB; mocked in tests.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// ShippingCalculator prices the shipping of an order before it is created
type ShippingCalculator interface {
	Fee(ctx context.Context, addr *account.Address, subtotal decimal.Decimal) (decimal.Decimal, error)
}

// FlatFeeShipping charges the same configured fee for every order
type FlatFeeShipping struct {
	fee decimal.Decimal
}

var _ ShippingCalculator = (*FlatFeeShipping)(nil)

func NewFlatFeeShipping(fee string) (*FlatFeeShipping, error) {
	d, err := decimal.NewFromString(fee)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping fee %q: %w", fee, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("shipping fee cannot be negative: %s", fee)
	}
	return &FlatFeeShipping{fee: d}, nil
}

func (s *FlatFeeShipping) Fee(_ context.Context, _ *account.Address, _ decimal.Decimal) (decimal.Decimal, error) {
	return s.fee, nil
}
