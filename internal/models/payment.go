package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditStatus string

const (
	CreditPending  CreditStatus = "pending"
	CreditApplied  CreditStatus = "credited"
	CreditRejected CreditStatus = "rejected"
)

// Payment оплаченная у платёжного шлюза сессия пополнения кредитов.
// ID совпадает с идентификатором сессии шлюза, поэтому повторный вебхук не начислит кредиты дважды.
type Payment struct {
	ID         string
	AccountID  string
	Amount     decimal.Decimal
	Status     CreditStatus
	CreatedAt  time.Time
	CreditedAt *time.Time
}

// PaymentEvent тело вебхука платёжного шлюза. AmountMinor передаётся в минимальных единицах валюты
// и не может превышать database.MaxAmount.
type PaymentEvent struct {
	SessionID     *string `json:"sessionId" validate:"required"`
	UserID        *string `json:"userId" validate:"required,uuid"`
	AmountMinor   *int64  `json:"amount" validate:"required,gt=0,lte=999999999999"`
	PaymentStatus *string `json:"paymentStatus" validate:"required"`
}
