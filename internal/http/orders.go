package router

import (
	"net/http"

	"github.com/Renal37/campus-canteen/internal/middlewares"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/go-chi/chi/v5"
)

// PlaceOrder оформляет заказ и списывает его стоимость с баланса покупателя.
func PlaceOrder(w http.ResponseWriter, r *http.Request) {
	data, ok := middlewares.GetParsedJSONData[models.PlaceOrderRequest](w, r)
	if !ok {
		return
	}
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)
	if orderService == nil || user == nil {
		return
	}

	placed, err := (*orderService).PlaceOrder(r.Context(), user.ID, data)
	if err != nil {
		writeServiceError(w, "оформлении заказа", err)
		return
	}

	middlewares.EncodeJSONResponseWithStatus(w, http.StatusCreated, placed)
}

func GetOrders(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)
	if orderService == nil || user == nil {
		return
	}

	orders, err := (*orderService).GetOrders(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, "получении заказов", err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, orders)
}

func GetOrder(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)
	if orderService == nil || user == nil {
		return
	}

	order, err := (*orderService).GetOrder(r.Context(), *user, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "получении заказа", err)
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}

// GetVendorOrders отдаёт продавцу адресованные ему заказы.
func GetVendorOrders(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)
	if orderService == nil || user == nil {
		return
	}

	orders, err := (*orderService).GetVendorOrders(r.Context(), *user)
	if err != nil {
		writeServiceError(w, "получении заказов продавца", err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, orders)
}

func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	data, ok := middlewares.GetParsedJSONData[models.StatusUpdate](w, r)
	if !ok {
		return
	}
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)
	if orderService == nil || user == nil {
		return
	}

	if data.Status == nil {
		http.Error(w, "Запрос не содержит статус", http.StatusBadRequest)
		return
	}

	order, err := (*orderService).UpdateStatus(r.Context(), *user, chi.URLParam(r, "id"), *data.Status)
	if err != nil {
		writeServiceError(w, "смене статуса заказа", err)
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}
