package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Renal37/campus-canteen/internal/database"
	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/Renal37/campus-canteen/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// createAccount регистрирует пользователя в хранилище и пополняет его счёт.
func createAccount(t *testing.T, store *database.MemoryStore, role models.Role, balance string) models.User {
	t.Helper()

	user := models.User{ID: uuid.NewString(), Login: "login-" + uuid.NewString(), Hash: "hash", Role: role}
	require.NoError(t, store.CreateUser(context.Background(), database.UserDB{User: user}))

	if b := dec(balance); !b.IsZero() {
		require.NoError(t, store.Commit(context.Background(), database.NewBatch().SetBalance(user.ID, decimal.Zero, b)))
	}

	return user
}

func orderRequest(vendorID string, items ...models.LineItemRequest) models.PlaceOrderRequest {
	delivery := utils.RFC3339Date{Time: testNow.Add(2 * time.Hour)}
	return models.PlaceOrderRequest{
		VendorID:     vendorID,
		Items:        items,
		DeliveryTime: &delivery,
		Name:         "Иван Петров",
		Email:        "ivan@example.com",
		MobileNumber: "+79990000000",
	}
}

func item(name, price string, quantity int) models.LineItemRequest {
	return models.LineItemRequest{
		MenuItemID: "menu-" + name,
		Name:       name,
		Price:      dec(price),
		Quantity:   quantity,
	}
}

// barrierStore задерживает чтение счёта, пока его не выполнят parties запросов,
// чтобы параллельные оформления гарантированно прочитали один и тот же баланс.
type barrierStore struct {
	*database.MemoryStore
	wg sync.WaitGroup
}

func newBarrierStore(store *database.MemoryStore, parties int) *barrierStore {
	b := &barrierStore{MemoryStore: store}
	b.wg.Add(parties)
	return b
}

func (b *barrierStore) FindAccount(ctx context.Context, accountID string) (models.Account, error) {
	account, err := b.MemoryStore.FindAccount(ctx, accountID)
	b.wg.Done()
	b.wg.Wait()
	return account, err
}
