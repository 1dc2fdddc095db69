package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	InsertPaymentQuery = `
		INSERT INTO
			payments (id, account_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	SelectPaymentQuery = `
		SELECT
			id,
			account_id,
			amount,
			status,
			created_at,
			credited_at
		FROM
			payments
		WHERE
			id = $1
	`
	SelectPendingPaymentsQuery = `
		SELECT
			id,
			account_id,
			amount,
			status,
			created_at,
			credited_at
		FROM
			payments
		WHERE
			status = 'pending'
		ORDER BY
			created_at
	`
	SettlePaymentQuery = `
		UPDATE
			payments
		SET
			status = 'credited',
			credited_at = $2
		WHERE
			id = $1 AND status = 'pending'
	`
	ReopenPaymentQuery = `
		UPDATE
			payments
		SET
			status = 'pending'
		WHERE
			id = $1 AND status = 'rejected'
	`
	PaymentExistsQuery = `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`
)

// CreatePayment сохраняет сессию пополнения. Повторная сессия с тем же ID даёт ErrDuplicate,
// неизвестный счёт даёт ErrNotFound.
func (d *Database) CreatePayment(ctx context.Context, payment models.Payment) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	_, err := d.db.Exec(ctx, InsertPaymentQuery,
		payment.ID, payment.AccountID, payment.Amount.String(), string(payment.Status), payment.CreatedAt)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("не удалось сохранить платёж: %w", err)
	}

	return nil
}

func (d *Database) FindPayment(ctx context.Context, paymentID string) (models.Payment, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var (
		p      models.Payment
		status string
	)
	err := d.db.QueryRow(ctx, SelectPaymentQuery, paymentID).
		Scan(&p.ID, &p.AccountID, &p.Amount, &status, &p.CreatedAt, &p.CreditedAt)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, ErrNotFound) {
			return models.Payment{}, ErrNotFound
		}
		return models.Payment{}, fmt.Errorf("не удалось прочитать платёж: %w", err)
	}
	p.Status = models.CreditStatus(status)

	return p, nil
}

// FindPendingPayments возвращает платежи, кредиты по которым ещё не зачислены.
func (d *Database) FindPendingPayments(ctx context.Context) ([]models.Payment, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.Query(ctx, SelectPendingPaymentsQuery)
	if err != nil {
		return nil, fmt.Errorf("не удалось выполнить запрос платежей: %w", mapError(err))
	}
	defer rows.Close()

	var result []models.Payment
	for rows.Next() {
		var (
			p      models.Payment
			status string
		)
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Amount, &status, &p.CreatedAt, &p.CreditedAt); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании строки платежа: %w", mapError(err))
		}
		p.Status = models.CreditStatus(status)
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после чтения строк платежей: %w", mapError(err))
	}

	return result, nil
}

// setPaymentStatus сравнивает и заменяет статус платежа внутри транзакции.
func setPaymentStatus(ctx context.Context, exec DBExecutor, w PaymentWrite) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	switch {
	case w.From == models.CreditPending && w.To == models.CreditApplied:
		tag, err = exec.Exec(ctx, SettlePaymentQuery, w.PaymentID, w.At)
	case w.From == models.CreditRejected && w.To == models.CreditPending:
		tag, err = exec.Exec(ctx, ReopenPaymentQuery, w.PaymentID)
	default:
		return fmt.Errorf("недопустимая смена статуса платежа %s -> %s", w.From, w.To)
	}
	if err != nil {
		return fmt.Errorf("не удалось отметить платёж: %w", mapError(err))
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRow(ctx, PaymentExistsQuery, w.PaymentID).Scan(&exists); err != nil {
		return fmt.Errorf("ошибка проверки платежа: %w", mapError(err))
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}
