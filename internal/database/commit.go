package database

import (
	"context"
	"fmt"
)

// Commit фиксирует пакет в одной транзакции Postgres.
//
// Балансы обновляются первыми: UPDATE ... WHERE balance = $expected берёт блокировку строки
// счёта и при READ COMMITTED перепроверяет условие после ожидания конкурента, поэтому
// из двух параллельных списаний с одного и того же прочитанного баланса проходит только одно.
// Любая ошибка откатывает всю транзакцию.
func (d *Database) Commit(ctx context.Context, batch *Batch) error {
	if batch == nil || batch.Empty() {
		return nil
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", mapError(err))
	}
	defer rollback(tx)

	for _, w := range batch.balances {
		if err := setBalance(ctx, tx, w); err != nil {
			return err
		}
	}

	for _, order := range batch.orders {
		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}
	}

	for _, w := range batch.statuses {
		if err := setOrderStatus(ctx, tx, w); err != nil {
			return err
		}
	}

	for _, w := range batch.payments {
		if err := setPaymentStatus(ctx, tx, w); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", mapError(err))
	}

	return nil
}
