package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_auth.go . AuthService
type AuthService interface {
	Register(ctx context.Context, user UnknownUser) error

	Login(ctx context.Context, user UnknownUser) error

	GetUser(ctx context.Context, login string) (*User, error)
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(subject string) (string, error)

	ValidateToken(token string) (*jwt.Token, error)
}

//go:generate mockgen -destination=mocks/mock_ledger.go . LedgerService
type LedgerService interface {
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	GetAccount(ctx context.Context, accountID string) (Account, error)
}

//go:generate mockgen -destination=mocks/mock_order.go . OrderService
type OrderService interface {
	PlaceOrder(ctx context.Context, accountID string, req PlaceOrderRequest) (PlacedOrder, error)

	GetOrder(ctx context.Context, user User, orderID string) (Order, error)

	GetOrders(ctx context.Context, accountID string) ([]Order, error)

	GetVendorOrders(ctx context.Context, user User) ([]Order, error)

	UpdateStatus(ctx context.Context, user User, orderID string, status OrderStatus) (Order, error)
}

//go:generate mockgen -destination=mocks/mock_payment.go . PaymentService
type PaymentService interface {
	RegisterPayment(ctx context.Context, event PaymentEvent) error

	StartPendingCredits(ctx context.Context) error
}
