package router

import (
	"net/http"

	"github.com/Renal37/campus-canteen/internal/middlewares"
	"github.com/Renal37/campus-canteen/internal/models"
)

// PaymentWebhook принимает событие оплаты от шлюза. Зачисление выполняется асинхронно,
// поэтому успешный ответ означает, что событие сохранено.
func PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	event, ok := middlewares.GetParsedJSONData[models.PaymentEvent](w, r)
	if !ok {
		return
	}
	paymentService := middlewares.GetServiceFromContext[models.PaymentService](w, r, middlewares.PaymentServiceKey)
	if paymentService == nil {
		return
	}

	if err := (*paymentService).RegisterPayment(r.Context(), event); err != nil {
		writeServiceError(w, "приёме платежа", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
