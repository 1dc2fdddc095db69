package database

import (
	"time"

	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/shopspring/decimal"
)

// BalanceWrite заменяет баланс счёта на New, только если сохранённый баланс всё ещё равен Expected.
type BalanceWrite struct {
	AccountID string
	Expected  decimal.Decimal
	New       decimal.Decimal
}

// StatusWrite переводит заказ из From в To, только если его статус всё ещё From.
type StatusWrite struct {
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
	At      time.Time
}

// PaymentWrite переводит платёж из From в To, только если его статус всё ещё From.
// При переходе в credited At становится временем зачисления.
type PaymentWrite struct {
	PaymentID string
	From      models.CreditStatus
	To        models.CreditStatus
	At        time.Time
}

// Batch набор записей, который фиксируется целиком или не фиксируется вовсе.
// Каждая запись проверяет ожидаемое состояние; при расхождении Commit возвращает ErrConflict
// и ни одна из записей пакета не становится видимой.
type Batch struct {
	orders   []models.Order
	balances []BalanceWrite
	statuses []StatusWrite
	payments []PaymentWrite
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) InsertOrder(order models.Order) *Batch {
	b.orders = append(b.orders, order)
	return b
}

func (b *Batch) SetBalance(accountID string, expected, next decimal.Decimal) *Batch {
	b.balances = append(b.balances, BalanceWrite{AccountID: accountID, Expected: expected, New: next})
	return b
}

func (b *Batch) SetOrderStatus(orderID string, from, to models.OrderStatus, at time.Time) *Batch {
	b.statuses = append(b.statuses, StatusWrite{OrderID: orderID, From: from, To: to, At: at})
	return b
}

// SettlePayment отмечает ожидающий платёж зачисленным.
func (b *Batch) SettlePayment(paymentID string, at time.Time) *Batch {
	b.payments = append(b.payments, PaymentWrite{
		PaymentID: paymentID,
		From:      models.CreditPending,
		To:        models.CreditApplied,
		At:        at,
	})
	return b
}

// ReopenPayment возвращает отклонённый платёж в pending, когда шлюз позже сообщил об оплате.
func (b *Batch) ReopenPayment(paymentID string) *Batch {
	b.payments = append(b.payments, PaymentWrite{
		PaymentID: paymentID,
		From:      models.CreditRejected,
		To:        models.CreditPending,
	})
	return b
}

func (b *Batch) Empty() bool {
	return len(b.orders) == 0 && len(b.balances) == 0 && len(b.statuses) == 0 && len(b.payments) == 0
}

func (b *Batch) Orders() []models.Order {
	return b.orders
}

func (b *Batch) Balances() []BalanceWrite {
	return b.balances
}
