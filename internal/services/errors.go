package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Renal37/campus-canteen/internal/database"
	"github.com/Renal37/campus-canteen/internal/logger"
	"go.uber.org/zap"
)

// Ошибки учёта кредитов и оформления заказов.
var (
	ErrAccountNotFound        = errors.New("счёт не найден")
	ErrOrderNotFound          = errors.New("заказ не найден")
	ErrInsufficientFunds      = errors.New("недостаточно кредитов")
	ErrAmountMismatch         = errors.New("сумма заказа не совпадает с суммой позиций")
	ErrStaleRead              = errors.New("баланс изменился после чтения")
	ErrConcurrentModification = errors.New("запись изменена параллельным запросом")
	ErrCancelWindowExpired    = errors.New("время для отмены заказа истекло")
	ErrInvalidTransition      = errors.New("недопустимая смена статуса заказа")
	ErrForbidden              = errors.New("недостаточно прав")
	ErrStorageUnavailable     = errors.New("хранилище недоступно")
	ErrValidation             = errors.New("некорректные данные")
)

// storageError переводит ошибку хранилища, не связанную с бизнес-правилами, в ErrStorageUnavailable
// и пишет её в лог. Отмена контекста вызывающей стороной остаётся как есть.
func storageError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	logger.Log.Error("ошибка хранилища", zap.String("operation", op), zap.Error(err))

	if errors.Is(err, database.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
