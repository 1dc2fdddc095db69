package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Renal37/campus-canteen/internal/models"
)

const (
	SelectAccountQuery = `
		SELECT
			id,
			balance,
			version,
			updated_at
		FROM
			accounts
		WHERE
			id = $1
	`
	UpdateBalanceQuery = `
		UPDATE
			accounts
		SET
			balance = $3,
			version = version + 1,
			updated_at = now()
		WHERE
			id = $1 AND balance = $2
	`
	AccountExistsQuery = `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`
)

// FindAccount читает счёт. Возвращает ErrNotFound, если счёта нет.
func (d *Database) FindAccount(ctx context.Context, accountID string) (models.Account, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var account models.Account
	err := d.db.QueryRow(ctx, SelectAccountQuery, accountID).
		Scan(&account.ID, &account.Balance, &account.Version, &account.UpdatedAt.Time)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, ErrNotFound) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("ошибка чтения счёта: %w", err)
	}

	return account, nil
}

// setBalance сравнивает и заменяет баланс внутри транзакции.
func setBalance(ctx context.Context, exec DBExecutor, w BalanceWrite) error {
	tag, err := exec.Exec(ctx, UpdateBalanceQuery, w.AccountID, w.Expected.String(), w.New.String())
	if err != nil {
		return fmt.Errorf("ошибка обновления баланса: %w", mapError(err))
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRow(ctx, AccountExistsQuery, w.AccountID).Scan(&exists); err != nil {
		return fmt.Errorf("ошибка проверки счёта: %w", mapError(err))
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}
