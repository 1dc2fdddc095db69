package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/Renal37/campus-canteen/internal/utils"
)

// CommitHook вызывается после каждой подготовленной записи пакета.
// Ошибка из хука прерывает Commit так же, как сбой хранилища посреди транзакции.
type CommitHook func(step int) error

// MemoryStore потокобезопасное хранилище в памяти с теми же гарантиями Commit, что и у Postgres:
// пакет проверяется и применяется под одной блокировкой, изменения готовятся в отдельных
// картах и попадают в хранилище только после успешной подготовки всех записей.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User // login -> user
	accounts map[string]models.Account
	orders   map[string]models.Order
	payments map[string]models.Payment
	hook     CommitHook
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		accounts: make(map[string]models.Account),
		orders:   make(map[string]models.Order),
		payments: make(map[string]models.Payment),
	}
}

// SetCommitHook устанавливает хук для внедрения сбоев.
func (m *MemoryStore) SetCommitHook(hook CommitHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

func (m *MemoryStore) CreateUser(ctx context.Context, user UserDB) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Login]; exists {
		return ErrDuplicate
	}

	m.users[user.Login] = user.User
	m.accounts[user.ID] = models.Account{ID: user.ID, UpdatedAt: utils.RFC3339Date{Time: now()}}
	return nil
}

func (m *MemoryStore) FindUser(ctx context.Context, login string) (*UserDB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[login]
	if !ok {
		return nil, ErrNotFound
	}
	return &UserDB{User: user}, nil
}

func (m *MemoryStore) FindAccount(ctx context.Context, accountID string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return account, nil
}

func (m *MemoryStore) FindOrder(ctx context.Context, orderID string) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return cloneOrder(order), nil
}

func (m *MemoryStore) FindOrdersByAccount(ctx context.Context, accountID string) ([]models.Order, error) {
	return m.filterOrders(ctx, func(o models.Order) bool { return o.AccountID == accountID })
}

func (m *MemoryStore) FindOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error) {
	return m.filterOrders(ctx, func(o models.Order) bool { return o.VendorID == vendorID })
}

func (m *MemoryStore) filterOrders(ctx context.Context, match func(models.Order) bool) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Order
	for _, order := range m.orders {
		if match(order) {
			result = append(result, cloneOrder(order))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt.Time) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt.Time)
	})

	return result, nil
}

func (m *MemoryStore) CreatePayment(ctx context.Context, payment models.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.payments[payment.ID]; exists {
		return ErrDuplicate
	}
	if _, ok := m.accounts[payment.AccountID]; !ok {
		return ErrNotFound
	}
	if payment.Amount.GreaterThan(MaxAmount) {
		return ErrOutOfRange
	}

	m.payments[payment.ID] = payment
	return nil
}

func (m *MemoryStore) FindPayment(ctx context.Context, paymentID string) (models.Payment, error) {
	if err := ctx.Err(); err != nil {
		return models.Payment{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	payment, ok := m.payments[paymentID]
	if !ok {
		return models.Payment{}, ErrNotFound
	}
	return payment, nil
}

func (m *MemoryStore) FindPendingPayments(ctx context.Context) ([]models.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Payment
	for _, p := range m.payments {
		if p.Status == models.CreditPending {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// Commit проверяет и применяет пакет атомарно.
func (m *MemoryStore) Commit(ctx context.Context, batch *Batch) error {
	if batch == nil || batch.Empty() {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		accounts = make(map[string]models.Account)
		orders   = make(map[string]models.Order)
		payments = make(map[string]models.Payment)
		step     int
		at       = now()
	)

	prepared := func() error {
		step++
		if m.hook != nil {
			return m.hook(step)
		}
		return nil
	}

	for _, w := range batch.balances {
		account, ok := accounts[w.AccountID]
		if !ok {
			account, ok = m.accounts[w.AccountID]
		}
		if !ok {
			return ErrNotFound
		}
		if !account.Balance.Equal(w.Expected) {
			return ErrConflict
		}
		if w.New.IsNegative() {
			return ErrNegativeBalance
		}
		if w.New.GreaterThan(MaxAmount) {
			return ErrOutOfRange
		}

		account.Balance = w.New
		account.Version++
		account.UpdatedAt.Time = at
		accounts[w.AccountID] = account

		if err := prepared(); err != nil {
			return err
		}
	}

	for _, order := range batch.orders {
		if _, exists := m.orders[order.ID]; exists {
			return ErrDuplicate
		}
		if _, exists := orders[order.ID]; exists {
			return ErrDuplicate
		}
		if _, ok := m.accounts[order.AccountID]; !ok {
			return ErrNotFound
		}
		if order.TotalAmount.GreaterThan(MaxAmount) {
			return ErrOutOfRange
		}

		orders[order.ID] = cloneOrder(order)

		if err := prepared(); err != nil {
			return err
		}
	}

	for _, w := range batch.statuses {
		order, ok := orders[w.OrderID]
		if !ok {
			order, ok = m.orders[w.OrderID]
		}
		if !ok {
			return ErrNotFound
		}
		if order.Status != w.From {
			return ErrConflict
		}

		order = cloneOrder(order)
		order.Status = w.To
		order.UpdatedAt.Time = w.At
		orders[w.OrderID] = order

		if err := prepared(); err != nil {
			return err
		}
	}

	for _, w := range batch.payments {
		payment, ok := payments[w.PaymentID]
		if !ok {
			payment, ok = m.payments[w.PaymentID]
		}
		if !ok {
			return ErrNotFound
		}
		if payment.Status != w.From {
			return ErrConflict
		}

		payment.Status = w.To
		if w.To == models.CreditApplied {
			creditedAt := w.At
			payment.CreditedAt = &creditedAt
		}
		payments[w.PaymentID] = payment

		if err := prepared(); err != nil {
			return err
		}
	}

	for id, account := range accounts {
		m.accounts[id] = account
	}
	for id, order := range orders {
		m.orders[id] = order
	}
	for id, payment := range payments {
		m.payments[id] = payment
	}

	return nil
}

func cloneOrder(order models.Order) models.Order {
	order.Items = append([]models.LineItem(nil), order.Items...)
	return order
}

func now() time.Time {
	return time.Now().UTC()
}
