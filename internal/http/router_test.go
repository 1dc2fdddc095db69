package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Renal37/campus-canteen/internal/middlewares"
	"github.com/Renal37/campus-canteen/internal/models"
	mock_models "github.com/Renal37/campus-canteen/internal/models/mocks"
	"github.com/Renal37/campus-canteen/internal/services"
	"github.com/Renal37/campus-canteen/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type routeTestCase struct {
	testName        string
	methodName      string
	targetURL       string
	headers         map[string]string
	body            func() io.Reader
	test            func(t *testing.T)
	expectedCode    int
	expectedMessage string
	expectedJSON    string
	testHeader      func(t *testing.T, header http.Header)
}

func runRouteTests(t *testing.T, testServer *httptest.Server, defaultHeaders map[string]string, testCases []routeTestCase) {
	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			var body io.Reader

			if tc.body != nil {
				body = tc.body()
			}

			if tc.test != nil {
				tc.test(t)
			}

			headers := defaultHeaders
			if tc.headers != nil {
				headers = tc.headers
			}

			res, mes := utils.TestRequest(t, testServer, tc.methodName, tc.targetURL, headers, body)
			res.Body.Close()

			assert.Equal(t, tc.expectedCode, res.StatusCode)
			if tc.expectedJSON != "" {
				assert.JSONEq(t, tc.expectedJSON, mes)
			} else {
				assert.Equal(t, tc.expectedMessage, mes)
			}

			if tc.testHeader != nil {
				tc.testHeader(t, res.Header)
			}
		})
	}
}

func jsonBody(v interface{}) func() io.Reader {
	return func() io.Reader {
		data, _ := json.Marshal(v)
		return bytes.NewBuffer(data)
	}
}

// expectAuthorized настраивает моки так, чтобы токен "token" принадлежал user.
func expectAuthorized(authServiceMock *mock_models.MockAuthService, jwtServiceMock *mock_models.MockJWTService, user models.User) {
	jwtToken := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub": "login",
		})

	jwtServiceMock.EXPECT().ValidateToken("token").Return(jwtToken, nil)
	authServiceMock.EXPECT().GetUser(gomock.Any(), "login").Return(&user, nil)
}

var authorizedJSON = map[string]string{"Content-Type": "application/json", "Authorization": "Bearer token"}

func TestRegisterRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, nil, nil).get(),
	)
	defer testServer.Close()

	Login := "user"
	Password := "123"

	runRouteTests(t, testServer, map[string]string{"Content-Type": "application/json"}, []routeTestCase{
		{
			testName:        "Should return a validation error due to missing body",
			methodName:      "POST",
			targetURL:       "/api/user/register",
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Ошибка при разборе данных JSON: unexpected end of JSON input\n",
		},
		{
			testName:        "Should return a validation error due to missing user login",
			methodName:      "POST",
			targetURL:       "/api/user/register",
			body:            jsonBody(models.UnknownUser{Password: &Password}),
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Запрос не содержит логин или пароль\n",
		},
		{
			testName:        "Should reject non-json content",
			methodName:      "POST",
			targetURL:       "/api/user/register",
			headers:         map[string]string{"Content-Type": "text/plain"},
			body:            jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode:    http.StatusUnsupportedMediaType,
			expectedMessage: "Тип контента не является application/json\n",
		},
		{
			testName:   "Should return error when user is already registered",
			methodName: "POST",
			targetURL:  "/api/user/register",
			test: func(t *testing.T) {
				authServiceMock.EXPECT().Register(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrUserIsAlreadyRegistered)
			},
			body:            jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode:    http.StatusConflict,
			expectedMessage: "Пользователь уже зарегистрирован\n",
		},
		{
			testName:   "Should return error when role isn't allowed",
			methodName: "POST",
			targetURL:  "/api/user/register",
			test: func(t *testing.T) {
				authServiceMock.EXPECT().Register(gomock.Any(), gomock.Any()).Return(services.ErrValidation)
			},
			body:            jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "некорректные данные\n",
		},
		{
			testName:   "Should return storage error",
			methodName: "POST",
			targetURL:  "/api/user/register",
			test: func(t *testing.T) {
				authServiceMock.EXPECT().Register(gomock.Any(), gomock.Any()).Return(services.ErrStorageUnavailable)
			},
			body:            jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode:    http.StatusServiceUnavailable,
			expectedMessage: "хранилище недоступно\n",
		},
		{
			testName:   "Should register user",
			methodName: "POST",
			targetURL:  "/api/user/register",
			test: func(t *testing.T) {
				authServiceMock.EXPECT().Register(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(nil)
				jwtServiceMock.EXPECT().GenerateJWT("user").Return("token", nil)
			},
			body:         jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode: http.StatusOK,
			testHeader: func(t *testing.T, header http.Header) {
				assert.Equal(t, "Bearer token", header.Get("Authorization"))
			},
		},
	})
}

func TestLoginRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, nil, nil).get(),
	)
	defer testServer.Close()

	Login := "user"
	Password := "123"

	runRouteTests(t, testServer, map[string]string{"Content-Type": "application/json"}, []routeTestCase{
		{
			testName:        "Should return a validation error due to missing user password",
			methodName:      "POST",
			targetURL:       "/api/user/login",
			body:            jsonBody(models.UnknownUser{Login: &Login}),
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Запрос не содержит логин или пароль\n",
		},
		{
			testName:   "Should return error when user login isn't exist",
			methodName: "POST",
			targetURL:  "/api/user/login",
			test: func(t *testing.T) {
				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrUserIsNotExist)
			},
			body:            jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Неверная пара логин/пароль\n",
		},
		{
			testName:   "Should return error when password isn't correct",
			methodName: "POST",
			targetURL:  "/api/user/login",
			test: func(t *testing.T) {
				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(services.ErrPasswordIsIncorrect)
			},
			body:            jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Неверная пара логин/пароль\n",
		},
		{
			testName:   "Should return authorization header",
			methodName: "POST",
			targetURL:  "/api/user/login",
			test: func(t *testing.T) {
				authServiceMock.EXPECT().Login(gomock.Any(), models.UnknownUser{Login: &Login, Password: &Password}).Return(nil)
				jwtServiceMock.EXPECT().GenerateJWT("user").Return("token", nil)
			},
			body:         jsonBody(models.UnknownUser{Login: &Login, Password: &Password}),
			expectedCode: http.StatusOK,
			testHeader: func(t *testing.T, header http.Header) {
				assert.Equal(t, "Bearer token", header.Get("Authorization"))
			},
		},
	})
}

func TestBalanceRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)
	ledgerServiceMock := mock_models.NewMockLedgerService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, ledgerServiceMock, nil, nil).get(),
	)
	defer testServer.Close()

	user := models.User{ID: "user-id", Login: "user", Role: models.RoleUser}

	runRouteTests(t, testServer, authorizedJSON, []routeTestCase{
		{
			testName:        "Should require authorization header",
			methodName:      "GET",
			targetURL:       "/api/user/balance",
			headers:         map[string]string{},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Требуется заголовок Authorization\n",
		},
		{
			testName:   "Should reject expired token",
			methodName: "GET",
			targetURL:  "/api/user/balance",
			test: func(t *testing.T) {
				jwtServiceMock.EXPECT().ValidateToken("token").Return(nil, services.ErrTokenIsExpired)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Токен истёк\n",
		},
		{
			testName:   "Should return balance",
			methodName: "GET",
			targetURL:  "/api/user/balance",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				ledgerServiceMock.EXPECT().GetAccount(gomock.Any(), "user-id").Return(models.Account{
					ID:        "user-id",
					Balance:   decimal.RequireFromString("40.50"),
					Version:   3,
					UpdatedAt: utils.RFC3339Date{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedJSON: `{"accountId":"user-id","credits":"40.5","version":3,"updatedAt":"2024-03-01T10:00:00Z"}`,
		},
		{
			testName:   "Should return not found for missing account",
			methodName: "GET",
			targetURL:  "/api/user/balance",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				ledgerServiceMock.EXPECT().GetAccount(gomock.Any(), "user-id").Return(models.Account{}, services.ErrAccountNotFound)
			},
			expectedCode:    http.StatusNotFound,
			expectedMessage: "счёт не найден\n",
		},
	})
}

func TestPlaceOrderRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)
	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, orderServiceMock, nil).get(),
	)
	defer testServer.Close()

	user := models.User{ID: "user-id", Login: "user", Role: models.RoleUser}
	delivery := utils.RFC3339Date{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	request := models.PlaceOrderRequest{
		VendorID:     "vendor-id",
		Items:        []models.LineItemRequest{{MenuItemID: "m1", Name: "Борщ", Price: decimal.RequireFromString("60"), Quantity: 1}},
		DeliveryTime: &delivery,
		Name:         "Иван",
		Email:        "ivan@example.com",
		MobileNumber: "+79990000000",
	}

	orderError := func(err error) func(t *testing.T) {
		return func(t *testing.T) {
			expectAuthorized(authServiceMock, jwtServiceMock, user)
			orderServiceMock.EXPECT().PlaceOrder(gomock.Any(), "user-id", gomock.Any()).Return(models.PlacedOrder{}, err)
		}
	}

	runRouteTests(t, testServer, authorizedJSON, []routeTestCase{
		{
			testName:   "Should place order",
			methodName: "POST",
			targetURL:  "/api/user/orders",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().PlaceOrder(gomock.Any(), "user-id", gomock.Any()).Return(models.PlacedOrder{
					Order: models.Order{
						ID:            "order-id",
						AccountID:     "user-id",
						VendorID:      "vendor-id",
						Items:         []models.LineItem{{MenuItemID: "m1", Name: "Борщ", UnitPrice: decimal.RequireFromString("60"), Quantity: 1, LineTotal: decimal.RequireFromString("60")}},
						TotalAmount:   decimal.RequireFromString("60"),
						Status:        models.StatusPending,
						PaymentStatus: models.PaymentPaid,
						Contact:       models.Contact{Name: "Иван", Email: "ivan@example.com", MobileNumber: "+79990000000"},
						DeliveryTime:  delivery,
						CreatedAt:     utils.RFC3339Date{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
						UpdatedAt:     utils.RFC3339Date{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
					},
					Balance: decimal.RequireFromString("40"),
				}, nil)
			},
			body:         jsonBody(request),
			expectedCode: http.StatusCreated,
			expectedJSON: `{
				"order": {
					"id": "order-id",
					"userId": "user-id",
					"vendorId": "vendor-id",
					"menuItems": [{"menuItemId": "m1", "name": "Борщ", "price": "60", "quantity": 1, "totalPrice": "60"}],
					"totalAmount": "60",
					"status": "pending",
					"paymentStatus": "paid",
					"contact": {"name": "Иван", "email": "ivan@example.com", "mobileNumber": "+79990000000"},
					"deliveryTime": "2024-03-01T12:00:00Z",
					"orderDate": "2024-03-01T10:00:00Z",
					"updatedAt": "2024-03-01T10:00:00Z"
				},
				"updatedCredits": "40"
			}`,
		},
		{
			testName:        "Should return bad request for insufficient funds",
			methodName:      "POST",
			targetURL:       "/api/user/orders",
			test:            orderError(services.ErrInsufficientFunds),
			body:            jsonBody(request),
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "недостаточно кредитов\n",
		},
		{
			testName:        "Should return unprocessable entity for amount mismatch",
			methodName:      "POST",
			targetURL:       "/api/user/orders",
			test:            orderError(services.ErrAmountMismatch),
			body:            jsonBody(request),
			expectedCode:    http.StatusUnprocessableEntity,
			expectedMessage: "сумма заказа не совпадает с суммой позиций\n",
		},
		{
			testName:        "Should return conflict for concurrent modification",
			methodName:      "POST",
			targetURL:       "/api/user/orders",
			test:            orderError(services.ErrConcurrentModification),
			body:            jsonBody(request),
			expectedCode:    http.StatusConflict,
			expectedMessage: "запись изменена параллельным запросом\n",
		},
		{
			testName:        "Should return not found for missing account",
			methodName:      "POST",
			targetURL:       "/api/user/orders",
			test:            orderError(services.ErrAccountNotFound),
			body:            jsonBody(request),
			expectedCode:    http.StatusNotFound,
			expectedMessage: "счёт не найден\n",
		},
		{
			testName:        "Should return service unavailable for storage faults",
			methodName:      "POST",
			targetURL:       "/api/user/orders",
			test:            orderError(services.ErrStorageUnavailable),
			body:            jsonBody(request),
			expectedCode:    http.StatusServiceUnavailable,
			expectedMessage: "хранилище недоступно\n",
		},
	})
}

func TestGetOrdersRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)
	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, orderServiceMock, nil).get(),
	)
	defer testServer.Close()

	user := models.User{ID: "user-id", Login: "user", Role: models.RoleUser}
	vendor := models.User{ID: "vendor-id", Login: "canteen", Role: models.RoleVendor}
	order := models.Order{
		ID:            "order-id",
		AccountID:     "user-id",
		VendorID:      "vendor-id",
		TotalAmount:   decimal.RequireFromString("5"),
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPaid,
	}

	runRouteTests(t, testServer, authorizedJSON, []routeTestCase{
		{
			testName:   "Should return no content without orders",
			methodName: "GET",
			targetURL:  "/api/user/orders",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().GetOrders(gomock.Any(), "user-id").Return([]models.Order{}, nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			testName:   "Should return orders",
			methodName: "GET",
			targetURL:  "/api/user/orders",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().GetOrders(gomock.Any(), "user-id").Return([]models.Order{order}, nil)
			},
			expectedCode: http.StatusOK,
			expectedJSON: `[{
				"id": "order-id", "userId": "user-id", "vendorId": "vendor-id", "menuItems": null,
				"totalAmount": "5", "status": "pending", "paymentStatus": "paid",
				"contact": {"name": "", "email": "", "mobileNumber": ""},
				"deliveryTime": "0001-01-01T00:00:00Z", "orderDate": "0001-01-01T00:00:00Z", "updatedAt": "0001-01-01T00:00:00Z"
			}]`,
		},
		{
			testName:   "Should return one order",
			methodName: "GET",
			targetURL:  "/api/user/orders/order-id",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().GetOrder(gomock.Any(), user, "order-id").Return(order, nil)
			},
			expectedCode: http.StatusOK,
			expectedJSON: `{
				"id": "order-id", "userId": "user-id", "vendorId": "vendor-id", "menuItems": null,
				"totalAmount": "5", "status": "pending", "paymentStatus": "paid",
				"contact": {"name": "", "email": "", "mobileNumber": ""},
				"deliveryTime": "0001-01-01T00:00:00Z", "orderDate": "0001-01-01T00:00:00Z", "updatedAt": "0001-01-01T00:00:00Z"
			}`,
		},
		{
			testName:   "Should forbid foreign order",
			methodName: "GET",
			targetURL:  "/api/user/orders/order-id",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().GetOrder(gomock.Any(), user, "order-id").Return(models.Order{}, services.ErrForbidden)
			},
			expectedCode:    http.StatusForbidden,
			expectedMessage: "недостаточно прав\n",
		},
		{
			testName:   "Should return not found for missing order",
			methodName: "GET",
			targetURL:  "/api/user/orders/missing",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().GetOrder(gomock.Any(), user, "missing").Return(models.Order{}, services.ErrOrderNotFound)
			},
			expectedCode:    http.StatusNotFound,
			expectedMessage: "заказ не найден\n",
		},
		{
			testName:   "Should return vendor orders",
			methodName: "GET",
			targetURL:  "/api/vendor/orders",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, vendor)
				orderServiceMock.EXPECT().GetVendorOrders(gomock.Any(), vendor).Return([]models.Order{}, nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			testName:   "Should forbid vendor orders for buyer",
			methodName: "GET",
			targetURL:  "/api/vendor/orders",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().GetVendorOrders(gomock.Any(), user).Return(nil, services.ErrForbidden)
			},
			expectedCode:    http.StatusForbidden,
			expectedMessage: "недостаточно прав\n",
		},
	})
}

func TestUpdateOrderStatusRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authServiceMock := mock_models.NewMockAuthService(ctrl)
	jwtServiceMock := mock_models.NewMockJWTService(ctrl)
	orderServiceMock := mock_models.NewMockOrderService(ctrl)

	testServer := httptest.NewServer(
		New(Config{}, authServiceMock, jwtServiceMock, nil, orderServiceMock, nil).get(),
	)
	defer testServer.Close()

	user := models.User{ID: "user-id", Login: "user", Role: models.RoleUser}
	canceled := models.StatusCanceled

	statusError := func(err error) func(t *testing.T) {
		return func(t *testing.T) {
			expectAuthorized(authServiceMock, jwtServiceMock, user)
			orderServiceMock.EXPECT().UpdateStatus(gomock.Any(), user, "order-id", models.StatusCanceled).Return(models.Order{}, err)
		}
	}

	runRouteTests(t, testServer, authorizedJSON, []routeTestCase{
		{
			testName:   "Should cancel order",
			methodName: "PATCH",
			targetURL:  "/api/user/orders/order-id/status",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
				orderServiceMock.EXPECT().UpdateStatus(gomock.Any(), user, "order-id", models.StatusCanceled).Return(models.Order{
					ID:          "order-id",
					Status:      models.StatusCanceled,
					TotalAmount: decimal.RequireFromString("5"),
				}, nil)
			},
			body:         jsonBody(models.StatusUpdate{Status: &canceled}),
			expectedCode: http.StatusOK,
			expectedJSON: `{
				"id": "order-id", "userId": "", "vendorId": "", "menuItems": null,
				"totalAmount": "5", "status": "canceled", "paymentStatus": "",
				"contact": {"name": "", "email": "", "mobileNumber": ""},
				"deliveryTime": "0001-01-01T00:00:00Z", "orderDate": "0001-01-01T00:00:00Z", "updatedAt": "0001-01-01T00:00:00Z"
			}`,
		},
		{
			testName:   "Should require status",
			methodName: "PATCH",
			targetURL:  "/api/user/orders/order-id/status",
			test: func(t *testing.T) {
				expectAuthorized(authServiceMock, jwtServiceMock, user)
			},
			body:            jsonBody(models.StatusUpdate{}),
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "Запрос не содержит статус\n",
		},
		{
			testName:        "Should reject cancel after window",
			methodName:      "PATCH",
			targetURL:       "/api/user/orders/order-id/status",
			test:            statusError(services.ErrCancelWindowExpired),
			body:            jsonBody(models.StatusUpdate{Status: &canceled}),
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "время для отмены заказа истекло\n",
		},
		{
			testName:        "Should reject transition from terminal status",
			methodName:      "PATCH",
			targetURL:       "/api/user/orders/order-id/status",
			test:            statusError(services.ErrInvalidTransition),
			body:            jsonBody(models.StatusUpdate{Status: &canceled}),
			expectedCode:    http.StatusConflict,
			expectedMessage: "недопустимая смена статуса заказа\n",
		},
		{
			testName:        "Should reject status change by another user",
			methodName:      "PATCH",
			targetURL:       "/api/user/orders/order-id/status",
			test:            statusError(services.ErrForbidden),
			body:            jsonBody(models.StatusUpdate{Status: &canceled}),
			expectedCode:    http.StatusForbidden,
			expectedMessage: "недостаточно прав\n",
		},
	})
}

func TestPaymentWebhookRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	paymentServiceMock := mock_models.NewMockPaymentService(ctrl)

	const secret = "webhook-secret"
	testServer := httptest.NewServer(
		New(Config{WebhookSecret: secret}, nil, nil, nil, nil, paymentServiceMock).get(),
	)
	defer testServer.Close()

	sessionID := "cs_test_1"
	userID := "5f0c6f8e-3b8a-4a39-9d0b-1d7e4c1b2a10"
	amount := int64(2500)
	status := "paid"
	event := models.PaymentEvent{SessionID: &sessionID, UserID: &userID, AmountMinor: &amount, PaymentStatus: &status}
	payload, _ := json.Marshal(event)

	signed := map[string]string{
		"Content-Type":              "application/json",
		middlewares.SignatureHeader: middlewares.Sign(secret, payload),
	}

	runRouteTests(t, testServer, signed, []routeTestCase{
		{
			testName:   "Should accept signed event",
			methodName: "POST",
			targetURL:  "/api/payments/webhook",
			test: func(t *testing.T) {
				paymentServiceMock.EXPECT().RegisterPayment(gomock.Any(), event).Return(nil)
			},
			body:         func() io.Reader { return bytes.NewReader(payload) },
			expectedCode: http.StatusAccepted,
		},
		{
			testName:   "Should reject event with wrong signature",
			methodName: "POST",
			targetURL:  "/api/payments/webhook",
			headers: map[string]string{
				"Content-Type":              "application/json",
				middlewares.SignatureHeader: middlewares.Sign("other", payload),
			},
			body:            func() io.Reader { return bytes.NewReader(payload) },
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "Неверная подпись\n",
		},
		{
			testName:   "Should return not found for unknown account",
			methodName: "POST",
			targetURL:  "/api/payments/webhook",
			test: func(t *testing.T) {
				paymentServiceMock.EXPECT().RegisterPayment(gomock.Any(), event).Return(services.ErrAccountNotFound)
			},
			body:            func() io.Reader { return bytes.NewReader(payload) },
			expectedCode:    http.StatusNotFound,
			expectedMessage: "счёт не найден\n",
		},
	})
}

func TestHandlersStopWithoutParsedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// ни один сервис не должен быть вызван
	orderServiceMock := mock_models.NewMockOrderService(ctrl)
	paymentServiceMock := mock_models.NewMockPaymentService(ctrl)
	injector := middlewares.ServiceInjectorMiddleware(nil, nil, nil, orderServiceMock, paymentServiceMock)

	handlers := []struct {
		testName string
		handler  http.HandlerFunc
	}{
		{testName: "PlaceOrder", handler: PlaceOrder},
		{testName: "UpdateOrderStatus", handler: UpdateOrderStatus},
		{testName: "PaymentWebhook", handler: PaymentWebhook},
	}

	for _, tc := range handlers {
		t.Run(tc.testName, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)

			injector(tc.handler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "Не удалось извлечь данные из контекста\n", rec.Body.String())
		})
	}
}
