package middlewares

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Renal37/campus-canteen/internal/models"
)

type key int

const (
	AuthServiceKey key = iota
	JwtServiceKey
	LedgerServiceKey
	OrderServiceKey
	PaymentServiceKey
)

func ServiceInjectorMiddleware(
	authService models.AuthService,
	jwtService models.JWTService,
	ledgerService models.LedgerService,
	orderService models.OrderService,
	paymentService models.PaymentService,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), AuthServiceKey, authService)
			ctx = context.WithValue(ctx, JwtServiceKey, jwtService)
			ctx = context.WithValue(ctx, LedgerServiceKey, ledgerService)
			ctx = context.WithValue(ctx, OrderServiceKey, orderService)
			ctx = context.WithValue(ctx, PaymentServiceKey, paymentService)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetServiceFromContext достаёт сервис, положенный ServiceInjectorMiddleware.
// Если сервиса нет, отвечает 500 и возвращает nil.
func GetServiceFromContext[Service interface{}](w http.ResponseWriter, r *http.Request, serviceKey key) *Service {
	foundService, ok := r.Context().Value(serviceKey).(Service)
	if !ok {
		http.Error(w, fmt.Sprintf("Сервис %v не найден в контексте", serviceKey), http.StatusInternalServerError)
		return nil
	}

	return &foundService
}
