package account

import (
	"time"

	"github.com/google/uuid"
)

// Role defines the authorization scope of an account
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Account represents a registered identity. Authentication happens upstream;
// the core only consults the stored role for authorization checks.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the account holds the admin role
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Address is a shipping destination owned by an account
type Address struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	District string    `json:"district"`
	City     string    `json:"city"`
	Country  string    `json:"country"`
}

// PaymentMethod is a configured way to settle an order. The reserved name
// "Wallet" routes payment through the stored-value wallet.
type PaymentMethod struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// WalletMethodName is the reserved payment method name that triggers a
// wallet debit during order creation
const WalletMethodName = "Wallet"
