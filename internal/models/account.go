package models

import (
	"github.com/Renal37/campus-canteen/internal/utils"
	"github.com/shopspring/decimal"
)

// Account хранит кредитный баланс пользователя.
// Идентификатор счёта совпадает с идентификатором пользователя-владельца.
type Account struct {
	ID        string            `json:"accountId"`
	Balance   decimal.Decimal   `json:"credits"`
	Version   int64             `json:"version"`
	UpdatedAt utils.RFC3339Date `json:"updatedAt"`
}
