package main

import (
	"context"
	"log"

	"github.com/Renal37/campus-canteen/internal/database"
	router "github.com/Renal37/campus-canteen/internal/http"
	"github.com/Renal37/campus-canteen/internal/logger"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/Renal37/campus-canteen/internal/services"
	"github.com/Renal37/campus-canteen/internal/utils"
	"go.uber.org/zap"
)

// store объединяет всё, что сервисам нужно от хранилища. Ему удовлетворяют Database и MemoryStore.
type store interface {
	services.AuthStorage

	FindAccount(ctx context.Context, accountID string) (models.Account, error)
	Commit(ctx context.Context, batch *database.Batch) error

	FindOrder(ctx context.Context, orderID string) (models.Order, error)
	FindOrdersByAccount(ctx context.Context, accountID string) ([]models.Order, error)
	FindOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error)

	CreatePayment(ctx context.Context, payment models.Payment) error
	FindPayment(ctx context.Context, paymentID string) (models.Payment, error)
	FindPendingPayments(ctx context.Context) ([]models.Payment, error)
}

func openStore(ctx context.Context, config Config) (store, func(), error) {
	if config.storage == storageMemory {
		logger.Log.Warn("данные хранятся в памяти и будут потеряны при остановке")
		return database.NewMemoryStore(), func() {}, nil
	}

	db, err := database.New(ctx, config.dsn, config.storageTimeout)
	if err != nil {
		return nil, nil, err
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, db.Close, nil
}

func main() {
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}
	defer logger.Log.Sync()

	ctx, stop := utils.HandleTerminationProcess(context.Background())
	defer stop()

	storage, closeStorage, err := openStore(ctx, config)
	if err != nil {
		logger.Log.Fatal("хранилище не инициализировано", zap.String("storage", config.storage), zap.Error(err))
	}
	defer closeStorage()

	jobQueueService := services.NewJobQueueService(ctx, config.creditQueue, config.creditWorkers)
	defer jobQueueService.Shutdown()

	paymentService := services.NewPaymentService(storage, jobQueueService)
	if err := paymentService.StartPendingCredits(ctx); err != nil {
		logger.Log.Error("не удалось возобновить зачисление пополнений", zap.Error(err))
	}

	err = router.New(
		router.Config{Endpoint: config.endpoint, WebhookSecret: config.webhookSecret},
		services.NewAuthService(storage),
		services.NewJWTService(config.authSecretKey),
		services.NewLedgerService(storage),
		services.NewOrderService(storage, config.cancelWindow),
		paymentService,
	).Run(ctx)
	if err != nil {
		logger.Log.Error("сервер завершился с ошибкой", zap.Error(err))
	}
}
