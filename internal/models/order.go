package models

import (
	"github.com/Renal37/campus-canteen/internal/utils"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCanceled   OrderStatus = "canceled"
)

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

type LineItem struct {
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	Calories   string          `json:"calories,omitempty"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	LineTotal  decimal.Decimal `json:"totalPrice"`
}

type Contact struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
}

// Order неизменяемая запись о покупке. После создания меняется только Status.
type Order struct {
	ID            string            `json:"id"`
	AccountID     string            `json:"userId"`
	VendorID      string            `json:"vendorId"`
	Items         []LineItem        `json:"menuItems"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	Status        OrderStatus       `json:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus"`
	Contact       Contact           `json:"contact"`
	DeliveryTime  utils.RFC3339Date `json:"deliveryTime"`
	CreatedAt     utils.RFC3339Date `json:"orderDate"`
	UpdatedAt     utils.RFC3339Date `json:"updatedAt"`
}

type PlacedOrder struct {
	Order   Order           `json:"order"`
	Balance decimal.Decimal `json:"updatedCredits"`
}

type LineItemRequest struct {
	MenuItemID string          `json:"menuItemId" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	Calories   string          `json:"calories"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity" validate:"min=1,max=1000"`
}

// PlaceOrderRequest тело запроса на оформление заказа.
// TotalAmount необязателен: если клиент его передал, он сверяется с суммой, посчитанной на сервере.
type PlaceOrderRequest struct {
	VendorID     string             `json:"vendorId" validate:"required,uuid"`
	Items        []LineItemRequest  `json:"menuItems" validate:"required,min=1,dive"`
	TotalAmount  *decimal.Decimal   `json:"totalAmount,omitempty"`
	DeliveryTime *utils.RFC3339Date `json:"deliveryTime" validate:"required"`
	Name         string             `json:"name" validate:"required"`
	Email        string             `json:"email" validate:"required,email"`
	MobileNumber string             `json:"mobileNumber" validate:"required"`
}

type StatusUpdate struct {
	Status *OrderStatus `json:"status"`
}
