package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Renal37/campus-canteen/internal/middlewares"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/Renal37/campus-canteen/internal/services"
)

func IsUnknownUserDataValid(data models.UnknownUser) bool {
	return data.Login != nil && *data.Login != "" && data.Password != nil && *data.Password != ""
}

// Register создаёт пользователя со счётом и сразу возвращает токен в заголовке Authorization.
func Register(w http.ResponseWriter, r *http.Request) {
	data, ok := middlewares.GetParsedJSONData[models.UnknownUser](w, r)
	if !ok {
		return
	}
	authService := middlewares.GetServiceFromContext[models.AuthService](w, r, middlewares.AuthServiceKey)
	jwtService := middlewares.GetServiceFromContext[models.JWTService](w, r, middlewares.JwtServiceKey)
	if authService == nil || jwtService == nil {
		return
	}

	if ok := IsUnknownUserDataValid(data); !ok {
		http.Error(w, "Запрос не содержит логин или пароль", http.StatusBadRequest)
		return
	}

	if err := (*authService).Register(r.Context(), data); err != nil {
		if errors.Is(err, services.ErrUserIsAlreadyRegistered) {
			http.Error(w, "Пользователь уже зарегистрирован", http.StatusConflict)
			return
		}

		writeServiceError(w, "регистрации", err)
		return
	}

	token, err := (*jwtService).GenerateJWT(*data.Login)
	if err != nil {
		http.Error(w, fmt.Sprintf("Ошибка при создании токена: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token))
}
