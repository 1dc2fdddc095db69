package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Renal37/campus-canteen/internal/logger"
	"github.com/Renal37/campus-canteen/internal/middlewares"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	// Endpoint адрес и порт, на которых слушает сервер.
	Endpoint string
	// WebhookSecret ключ подписи событий платёжного шлюза.
	WebhookSecret string
}

type Router struct {
	config         Config
	authService    models.AuthService
	jwtService     models.JWTService
	ledgerService  models.LedgerService
	orderService   models.OrderService
	paymentService models.PaymentService
}

func New(
	config Config,
	authService models.AuthService,
	jwtService models.JWTService,
	ledgerService models.LedgerService,
	orderService models.OrderService,
	paymentService models.PaymentService,
) *Router {
	return &Router{
		config:         config,
		authService:    authService,
		jwtService:     jwtService,
		ledgerService:  ledgerService,
		orderService:   orderService,
		paymentService: paymentService,
	}
}

func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		logger.RequestLogger,
		middlewares.ServiceInjectorMiddleware(
			router.authService,
			router.jwtService,
			router.ledgerService,
			router.orderService,
			router.paymentService,
		),
		middlewares.AuthMiddleware().WithExcludedPaths(
			"/api/user/register",
			"/api/user/login",
			"/api/payments/",
		).Middleware,
	)

	r.Route("/api/user", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/register", Register)
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/login", Login)

		r.Get("/balance", GetBalance)

		r.With(middlewares.JSONMiddleware[models.PlaceOrderRequest]).Post("/orders", PlaceOrder)
		r.Get("/orders", GetOrders)
		r.Get("/orders/{id}", GetOrder)
		r.With(middlewares.JSONMiddleware[models.StatusUpdate]).Patch("/orders/{id}/status", UpdateOrderStatus)
	})

	r.Get("/api/vendor/orders", GetVendorOrders)

	r.With(
		middlewares.SignatureMiddleware(router.config.WebhookSecret),
		middlewares.JSONMiddleware[models.PaymentEvent],
	).Post("/api/payments/webhook", PaymentWebhook)

	return r
}

// Run обслуживает запросы до отмены ctx, затем даёт активным запросам завершиться.
func (router *Router) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              router.config.Endpoint,
		Handler:           router.get(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("сервер запущен", zap.String("address", router.config.Endpoint))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("сервер остановлен: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Log.Info("сервер остановлен")
	return nil
}
