package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Renal37/campus-canteen/internal/database"
	"github.com/Renal37/campus-canteen/internal/logger"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/Renal37/campus-canteen/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCancelWindow время после оформления, в течение которого заказ ещё можно отменить.
const DefaultCancelWindow = time.Hour

// OrderService оформляет заказы и ведёт их статусы.
//
// Оформление заказа фиксирует вставку заказа и списание кредитов одним пакетом. Баланс
// списывается через сравнение с прочитанным значением, поэтому параллельный запрос,
// успевший изменить баланс, приводит к ErrConcurrentModification без частичных записей.
// Повторов внутри сервиса нет: решение о повторе принимает клиент.
type OrderService struct {
	storage      orderStorage
	ledger       *LedgerService
	cancelWindow time.Duration
	now          func() time.Time
}

type orderStorage interface {
	ledgerStorage

	FindOrder(ctx context.Context, orderID string) (models.Order, error)

	FindOrdersByAccount(ctx context.Context, accountID string) ([]models.Order, error)

	FindOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error)
}

func NewOrderService(storage orderStorage, cancelWindow time.Duration) *OrderService {
	if cancelWindow <= 0 {
		cancelWindow = DefaultCancelWindow
	}

	return &OrderService{
		storage:      storage,
		ledger:       NewLedgerService(storage),
		cancelWindow: cancelWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock подменяет источник текущего времени.
func (o *OrderService) WithClock(now func() time.Time) *OrderService {
	o.now = func() time.Time { return now().UTC() }
	return o
}

func (o *OrderService) PlaceOrder(ctx context.Context, accountID string, req models.PlaceOrderRequest) (models.PlacedOrder, error) {
	now := o.now()

	items, total, err := o.buildItems(req, now)
	if err != nil {
		return models.PlacedOrder{}, err
	}

	if req.TotalAmount != nil && !req.TotalAmount.Equal(total) {
		return models.PlacedOrder{}, fmt.Errorf("%w: передано %s, посчитано %s",
			ErrAmountMismatch, req.TotalAmount.String(), total.String())
	}

	balance, err := o.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return models.PlacedOrder{}, err
	}

	if balance.LessThan(total) {
		logger.Log.Info("недостаточно кредитов для заказа",
			zap.String("accountID", accountID),
			zap.String("balance", balance.String()),
			zap.String("total", total.String()),
		)
		return models.PlacedOrder{}, ErrInsufficientFunds
	}

	order := models.Order{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		VendorID:      req.VendorID,
		Items:         items,
		TotalAmount:   total,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPaid,
		Contact: models.Contact{
			Name:         req.Name,
			Email:        req.Email,
			MobileNumber: req.MobileNumber,
		},
		DeliveryTime: utils.RFC3339Date{Time: req.DeliveryTime.UTC()},
		CreatedAt:    utils.RFC3339Date{Time: now},
		UpdatedAt:    utils.RFC3339Date{Time: now},
	}

	batch := database.NewBatch().InsertOrder(order)
	newBalance, err := o.ledger.stage(batch, accountID, balance, total.Neg())
	if err != nil {
		return models.PlacedOrder{}, err
	}

	if err := o.storage.Commit(ctx, batch); err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			logger.Log.Info("баланс изменён параллельным запросом", zap.String("accountID", accountID))
			return models.PlacedOrder{}, ErrConcurrentModification
		case errors.Is(err, database.ErrNegativeBalance):
			return models.PlacedOrder{}, ErrInsufficientFunds
		case errors.Is(err, database.ErrNotFound):
			return models.PlacedOrder{}, ErrAccountNotFound
		case errors.Is(err, database.ErrOutOfRange):
			return models.PlacedOrder{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return models.PlacedOrder{}, storageError("оформление заказа", err)
	}

	logger.Log.Info("заказ оформлен",
		zap.String("orderID", order.ID),
		zap.String("accountID", accountID),
		zap.String("total", total.String()),
	)

	return models.PlacedOrder{Order: order, Balance: newBalance}, nil
}

// buildItems проверяет запрос и считает суммы позиций и заказа на сервере.
func (o *OrderService) buildItems(req models.PlaceOrderRequest, now time.Time) ([]models.LineItem, decimal.Decimal, error) {
	if err := validateStruct(req); err != nil {
		return nil, decimal.Zero, err
	}

	if req.DeliveryTime.Before(now) {
		return nil, decimal.Zero, fmt.Errorf("%w: время доставки в прошлом", ErrValidation)
	}

	items := make([]models.LineItem, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		if !item.Price.IsPositive() || !item.Price.Equal(item.Price.Round(2)) || item.Price.GreaterThan(database.MaxAmount) {
			return nil, decimal.Zero, fmt.Errorf("%w: некорректная цена позиции %s", ErrValidation, item.MenuItemID)
		}

		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items[i] = models.LineItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Calories:   item.Calories,
			UnitPrice:  item.Price,
			Quantity:   item.Quantity,
			LineTotal:  lineTotal,
		}
		total = total.Add(lineTotal)
	}

	if total.GreaterThan(database.MaxAmount) {
		return nil, decimal.Zero, fmt.Errorf("%w: сумма заказа %s больше %s", ErrValidation, total.String(), database.MaxAmount.String())
	}

	return items, total, nil
}

// GetOrder возвращает заказ покупателю, продавцу или администратору.
func (o *OrderService) GetOrder(ctx context.Context, user models.User, orderID string) (models.Order, error) {
	order, err := o.findOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if !canView(user, order) {
		return models.Order{}, ErrForbidden
	}

	return order, nil
}

// GetOrders возвращает заказы покупателя, новые первыми.
func (o *OrderService) GetOrders(ctx context.Context, accountID string) ([]models.Order, error) {
	if !isUUID(accountID) {
		return []models.Order{}, nil
	}

	orders, err := o.storage.FindOrdersByAccount(ctx, accountID)
	if err != nil {
		return nil, storageError("чтение заказов покупателя", err)
	}

	if orders == nil {
		return []models.Order{}, nil
	}
	return orders, nil
}

// GetVendorOrders возвращает заказы, адресованные продавцу.
func (o *OrderService) GetVendorOrders(ctx context.Context, user models.User) ([]models.Order, error) {
	if user.Role != models.RoleVendor && user.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	orders, err := o.storage.FindOrdersByVendor(ctx, user.ID)
	if err != nil {
		return nil, storageError("чтение заказов продавца", err)
	}

	if orders == nil {
		return []models.Order{}, nil
	}
	return orders, nil
}

// UpdateStatus переводит заказ в новый статус.
//
// Допустимы переходы pending -> processing -> completed, которые выполняет продавец, и отмена
// из pending или processing, пока с оформления прошло не больше окна отмены. Отменить заказ
// может и покупатель. Статус меняется сравнением с прочитанным значением.
func (o *OrderService) UpdateStatus(ctx context.Context, user models.User, orderID string, status models.OrderStatus) (models.Order, error) {
	if !status.IsValid() {
		return models.Order{}, fmt.Errorf("%w: неизвестный статус %q", ErrValidation, status)
	}

	order, err := o.findOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if !canView(user, order) {
		return models.Order{}, ErrForbidden
	}

	now := o.now()
	if err := o.checkTransition(user, order, status, now); err != nil {
		return models.Order{}, err
	}

	batch := database.NewBatch().SetOrderStatus(order.ID, order.Status, status, now)
	if err := o.storage.Commit(ctx, batch); err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			return models.Order{}, ErrConcurrentModification
		case errors.Is(err, database.ErrNotFound):
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, storageError("смена статуса заказа", err)
	}

	logger.Log.Info("статус заказа изменён",
		zap.String("orderID", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)

	order.Status = status
	order.UpdatedAt = utils.RFC3339Date{Time: now}
	return order, nil
}

func (o *OrderService) checkTransition(user models.User, order models.Order, to models.OrderStatus, now time.Time) error {
	if order.Status.IsTerminal() {
		return ErrInvalidTransition
	}

	isStaff := user.Role == models.RoleAdmin || (user.Role == models.RoleVendor && order.VendorID == user.ID)

	switch {
	case to == models.StatusCanceled:
		if now.Sub(order.CreatedAt.Time) > o.cancelWindow {
			return ErrCancelWindowExpired
		}
		return nil
	case order.Status == models.StatusPending && to == models.StatusProcessing,
		order.Status == models.StatusProcessing && to == models.StatusCompleted:
		if !isStaff {
			return ErrForbidden
		}
		return nil
	}

	return ErrInvalidTransition
}

func (o *OrderService) findOrder(ctx context.Context, orderID string) (models.Order, error) {
	if !isUUID(orderID) {
		return models.Order{}, ErrOrderNotFound
	}

	order, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, storageError("чтение заказа", err)
	}

	return order, nil
}

func canView(user models.User, order models.Order) bool {
	return user.Role == models.RoleAdmin || order.AccountID == user.ID || order.VendorID == user.ID
}
