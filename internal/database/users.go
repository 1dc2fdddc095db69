package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Renal37/campus-canteen/internal/models"
)

const (
	InsertUserQuery = `
        INSERT INTO
            users (id, login, hash, role)
        VALUES ($1, $2, $3, $4)
    `
	InsertAccountQuery = `
        INSERT INTO
            accounts (id, balance, version)
        VALUES ($1, 0, 0)
    `
	SelectUserQuery = `
        SELECT
            id,
            login,
            hash,
            role
        FROM
            users
        WHERE
            login = $1
    `
)

type UserDB struct {
	models.User
}

// CreateUser создает пользователя и его счёт с нулевым балансом в одной транзакции.
func (d *Database) CreateUser(ctx context.Context, user UserDB) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при создании пользователя: %w", mapError(err))
	}
	defer rollback(tx)

	if _, err := tx.Exec(ctx, InsertUserQuery, user.ID, user.Login, user.Hash, string(user.Role)); err != nil {
		err = mapError(err)
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	if _, err := tx.Exec(ctx, InsertAccountQuery, user.ID); err != nil {
		return fmt.Errorf("ошибка при создании счёта: %w", mapError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при создании пользователя: %w", mapError(err))
	}
	return nil
}

// FindUser находит пользователя по логину. Возвращает ErrNotFound, если его нет.
func (d *Database) FindUser(ctx context.Context, login string) (*UserDB, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	user := &UserDB{}
	var role string
	if err := d.db.QueryRow(ctx, SelectUserQuery, login).Scan(&user.ID, &user.Login, &user.Hash, &role); err != nil {
		err = mapError(err)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}
	user.Role = models.Role(role)
	return user, nil
}
