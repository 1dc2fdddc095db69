package router

import (
	"net/http"

	"github.com/Renal37/campus-canteen/internal/middlewares"
	"github.com/Renal37/campus-canteen/internal/models"
)

// GetBalance отдаёт кредитный баланс текущего пользователя.
func GetBalance(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	user := middlewares.GetUserFromContext(w, r)
	if ledgerService == nil || user == nil {
		return
	}

	account, err := (*ledgerService).GetAccount(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, "получении баланса", err)
		return
	}

	middlewares.EncodeJSONResponse(w, account)
}
