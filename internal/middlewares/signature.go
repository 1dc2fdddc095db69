package middlewares

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
)

// SignatureHeader заголовок с подписью тела вебхука: hex(HMAC-SHA256(secret, body)).
const SignatureHeader = "X-Signature"

// Sign считает подпись тела так же, как её считает платёжный шлюз.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureMiddleware пропускает только запросы с верной подписью тела.
// Тело прочитывается целиком и подставляется обратно для следующих обработчиков.
func SignatureMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "Приём платежей не настроен", http.StatusServiceUnavailable)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
			if err != nil {
				http.Error(w, "Ошибка чтения из тела запроса", http.StatusBadRequest)
				return
			}

			signature, err := hex.DecodeString(r.Header.Get(SignatureHeader))
			if err != nil || len(signature) == 0 {
				http.Error(w, "Неверная подпись", http.StatusUnauthorized)
				return
			}

			expected, _ := hex.DecodeString(Sign(secret, body))
			if !hmac.Equal(signature, expected) {
				http.Error(w, "Неверная подпись", http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
