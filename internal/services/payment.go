package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Renal37/campus-canteen/internal/database"
	"github.com/Renal37/campus-canteen/internal/logger"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GatewayStatusPaid статус оплаченной сессии в событии платёжного шлюза.
const GatewayStatusPaid = "paid"

const defaultCreditRetryDelay = 5 * time.Second

// PaymentService принимает события платёжного шлюза и зачисляет оплаченные кредиты.
//
// Событие сначала сохраняется как платёж в статусе pending, ключом служит идентификатор
// сессии шлюза. Зачисление выполняет задание очереди: баланс и статус платежа меняются
// одним пакетом, поэтому повторное событие или повторное задание не начислят кредиты дважды.
type PaymentService struct {
	storage    paymentStorage
	ledger     *LedgerService
	jobQueue   paymentJobQueue
	retryDelay time.Duration
	now        func() time.Time
}

type paymentStorage interface {
	ledgerStorage

	CreatePayment(ctx context.Context, payment models.Payment) error

	FindPayment(ctx context.Context, paymentID string) (models.Payment, error)

	FindPendingPayments(ctx context.Context) ([]models.Payment, error)
}

type paymentJobQueue interface {
	Enqueue(job Job) error

	ScheduleJob(job Job, delay time.Duration)

	PauseAndResume(delay time.Duration)
}

func NewPaymentService(storage paymentStorage, jobQueue paymentJobQueue) *PaymentService {
	return &PaymentService{
		storage:    storage,
		ledger:     NewLedgerService(storage),
		jobQueue:   jobQueue,
		retryDelay: defaultCreditRetryDelay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithRetryDelay задаёт паузу перед повторным зачислением после конфликта или сбоя хранилища.
func (ps *PaymentService) WithRetryDelay(delay time.Duration) *PaymentService {
	ps.retryDelay = delay
	return ps
}

// RegisterPayment сохраняет событие шлюза и ставит зачисление в очередь.
// Повтор уже сохранённого события не является ошибкой. Если сессия была отклонена,
// а шлюз позже сообщил об оплате, платёж возвращается в pending и зачисляется.
func (ps *PaymentService) RegisterPayment(ctx context.Context, event models.PaymentEvent) error {
	if err := validateStruct(event); err != nil {
		return err
	}

	if !isUUID(*event.UserID) {
		return ErrAccountNotFound
	}

	payment := models.Payment{
		ID:        *event.SessionID,
		AccountID: *event.UserID,
		Amount:    decimal.New(*event.AmountMinor, -2),
		Status:    models.CreditPending,
		CreatedAt: ps.now(),
	}

	if *event.PaymentStatus != GatewayStatusPaid {
		payment.Status = models.CreditRejected
	}

	err := ps.storage.CreatePayment(ctx, payment)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		existing, err := ps.storage.FindPayment(ctx, payment.ID)
		if err != nil {
			return storageError("чтение платежа", err)
		}

		logger.Log.Info("повторное событие платежа", zap.String("paymentID", existing.ID), zap.String("status", string(existing.Status)))

		switch existing.Status {
		case models.CreditPending:
			ps.enqueueCredit(existing.ID)
		case models.CreditRejected:
			if payment.Status == models.CreditPending {
				return ps.reopen(ctx, existing.ID)
			}
		}
		return nil
	case errors.Is(err, database.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, database.ErrOutOfRange):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case err != nil:
		return storageError("сохранение платежа", err)
	}

	if payment.Status == models.CreditRejected {
		logger.Log.Info("платёж не оплачен, кредиты не начисляются",
			zap.String("paymentID", payment.ID),
			zap.String("gatewayStatus", *event.PaymentStatus),
		)
		return nil
	}

	ps.enqueueCredit(payment.ID)
	return nil
}

// reopen переводит отклонённый платёж в pending и ставит зачисление в очередь.
func (ps *PaymentService) reopen(ctx context.Context, paymentID string) error {
	err := ps.storage.Commit(ctx, database.NewBatch().ReopenPayment(paymentID))
	switch {
	case err == nil:
		logger.Log.Info("отклонённый платёж оплачен", zap.String("paymentID", paymentID))
	case errors.Is(err, database.ErrConflict):
		// платёж уже вернули в pending или зачислили параллельным событием
	default:
		return storageError("возврат платежа в ожидание", err)
	}

	ps.enqueueCredit(paymentID)
	return nil
}

// StartPendingCredits ставит в очередь зачисление всех платежей, оставшихся в pending.
func (ps *PaymentService) StartPendingCredits(ctx context.Context) error {
	payments, err := ps.storage.FindPendingPayments(ctx)
	if err != nil {
		return storageError("чтение незачисленных платежей", err)
	}

	for _, payment := range payments {
		ps.enqueueCredit(payment.ID)
	}

	if len(payments) > 0 {
		logger.Log.Info("незачисленные платежи поставлены в очередь", zap.Int("count", len(payments)))
	}

	return nil
}

func (ps *PaymentService) enqueueCredit(paymentID string) {
	job := ps.creditJob(paymentID)

	if err := ps.jobQueue.Enqueue(job); err != nil {
		if errors.Is(err, ErrJobQueueIsFull) {
			logger.Log.Warn("очередь заполнена, зачисление отложено", zap.String("paymentID", paymentID))
			ps.jobQueue.ScheduleJob(job, ps.retryDelay)
			return
		}
		logger.Log.Warn("не удалось поставить зачисление в очередь", zap.String("paymentID", paymentID), zap.Error(err))
	}
}

func (ps *PaymentService) creditJob(paymentID string) Job {
	var job Job
	job = func(ctx context.Context) {
		err := ps.credit(ctx, paymentID)
		switch {
		case err == nil:
			return
		case errors.Is(err, ErrStorageUnavailable):
			// остальные задания тоже упрутся в хранилище, останавливаем очередь на паузу
			logger.Log.Warn("хранилище недоступно, очередь зачислений приостановлена", zap.String("paymentID", paymentID), zap.Error(err))
			ps.jobQueue.PauseAndResume(ps.retryDelay)
			ps.jobQueue.ScheduleJob(job, ps.retryDelay)
		case errors.Is(err, ErrConcurrentModification):
			logger.Log.Info("зачисление будет повторено", zap.String("paymentID", paymentID), zap.Error(err))
			ps.jobQueue.ScheduleJob(job, ps.retryDelay)
		default:
			logger.Log.Error("не удалось зачислить платёж", zap.String("paymentID", paymentID), zap.Error(err))
		}
	}
	return job
}

// credit зачисляет сумму платежа на счёт и отмечает платёж зачисленным в одном пакете.
func (ps *PaymentService) credit(ctx context.Context, paymentID string) error {
	payment, err := ps.storage.FindPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("платёж %s: %w", paymentID, database.ErrNotFound)
		}
		return storageError("чтение платежа", err)
	}

	if payment.Status != models.CreditPending {
		return nil
	}

	balance, err := ps.ledger.GetBalance(ctx, payment.AccountID)
	if err != nil {
		return err
	}

	batch := database.NewBatch().SettlePayment(payment.ID, ps.now())
	next, err := ps.ledger.stage(batch, payment.AccountID, balance, payment.Amount)
	if err != nil {
		return err
	}

	if err := ps.storage.Commit(ctx, batch); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return ErrConcurrentModification
		}
		if errors.Is(err, database.ErrOutOfRange) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return storageError("зачисление платежа", err)
	}

	logger.Log.Info("кредиты зачислены",
		zap.String("paymentID", payment.ID),
		zap.String("accountID", payment.AccountID),
		zap.String("amount", payment.Amount.String()),
		zap.String("balance", next.String()),
	)

	return nil
}
