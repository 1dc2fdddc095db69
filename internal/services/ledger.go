package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Renal37/campus-canteen/internal/database"
	"github.com/Renal37/campus-canteen/internal/logger"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService единственный путь записи кредитного баланса.
type LedgerService struct {
	storage ledgerStorage
}

type ledgerStorage interface {
	FindAccount(ctx context.Context, accountID string) (models.Account, error)

	Commit(ctx context.Context, batch *database.Batch) error
}

func NewLedgerService(storage ledgerStorage) *LedgerService {
	return &LedgerService{storage: storage}
}

// GetAccount возвращает баланс счёта вместе с его версией.
func (l *LedgerService) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	if !isUUID(accountID) {
		return models.Account{}, ErrAccountNotFound
	}

	account, err := l.storage.FindAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, storageError("чтение счёта", err)
	}

	return account, nil
}

func (l *LedgerService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := l.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// ApplyDelta меняет баланс на delta, если сохранённый баланс всё ещё равен expectedPrior.
// Возвращает новый баланс.
func (l *LedgerService) ApplyDelta(ctx context.Context, accountID string, delta, expectedPrior decimal.Decimal) (decimal.Decimal, error) {
	if !isUUID(accountID) {
		return decimal.Zero, ErrAccountNotFound
	}

	batch := database.NewBatch()
	next, err := l.stage(batch, accountID, expectedPrior, delta)
	if err != nil {
		return decimal.Zero, err
	}

	if err := l.storage.Commit(ctx, batch); err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			return decimal.Zero, ErrStaleRead
		case errors.Is(err, database.ErrNotFound):
			return decimal.Zero, ErrAccountNotFound
		case errors.Is(err, database.ErrNegativeBalance):
			return decimal.Zero, ErrInsufficientFunds
		case errors.Is(err, database.ErrOutOfRange):
			return decimal.Zero, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return decimal.Zero, storageError("изменение баланса", err)
	}

	logger.Log.Debug("баланс изменён",
		zap.String("accountID", accountID),
		zap.String("delta", delta.String()),
		zap.String("balance", next.String()),
	)

	return next, nil
}

// stage добавляет в пакет запись баланса prior -> prior+delta. Пакет может содержать и другие
// записи: заказ, смену статуса платежа. Тогда все они фиксируются вместе с балансом.
func (l *LedgerService) stage(batch *database.Batch, accountID string, prior, delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: нулевое изменение баланса", ErrValidation)
	}
	if prior.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: отрицательный исходный баланс", ErrValidation)
	}

	next := prior.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}
	if next.GreaterThan(database.MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: баланс %s больше %s", ErrValidation, next.String(), database.MaxAmount.String())
	}

	batch.SetBalance(accountID, prior, next)
	return next, nil
}

func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}
