package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Renal37/campus-canteen/internal/services"
)

// errorStatuses сопоставляет ошибки сервисов с HTTP-статусами. Проверяются по порядку.
var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrInsufficientFunds, http.StatusBadRequest},
	{services.ErrCancelWindowExpired, http.StatusBadRequest},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrAccountNotFound, http.StatusNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound},
	{services.ErrConcurrentModification, http.StatusConflict},
	{services.ErrStaleRead, http.StatusConflict},
	{services.ErrInvalidTransition, http.StatusConflict},
	{services.ErrAmountMismatch, http.StatusUnprocessableEntity},
	{services.ErrStorageUnavailable, http.StatusServiceUnavailable},
}

// writeServiceError отвечает текстом ошибки со статусом, соответствующим её виду.
func writeServiceError(w http.ResponseWriter, action string, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			http.Error(w, err.Error(), e.status)
			return
		}
	}

	if errors.Is(err, context.Canceled) {
		http.Error(w, "Запрос отменён", http.StatusServiceUnavailable)
		return
	}

	http.Error(w, fmt.Sprintf("Ошибка при %s: %s", action, err.Error()), http.StatusInternalServerError)
}
