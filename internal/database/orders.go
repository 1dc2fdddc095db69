package database

import (
	"context"
	"fmt"

	"github.com/Renal37/campus-canteen/internal/models"
	"github.com/jackc/pgx/v5"
)

// SQL-запросы для работы с заказами
const (
	InsertOrderQuery = `
		INSERT INTO
			orders (id, account_id, vendor_id, total_amount, status, payment_status,
			        contact_name, contact_email, contact_mobile, delivery_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	InsertOrderItemQuery = `
		INSERT INTO
			order_items (order_id, position, menu_item_id, name, calories, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	selectOrdersWithItems = `
		SELECT
			o.id,
			o.account_id,
			o.vendor_id,
			o.total_amount,
			o.status,
			o.payment_status,
			o.contact_name,
			o.contact_email,
			o.contact_mobile,
			o.delivery_time,
			o.created_at,
			o.updated_at,
			i.menu_item_id,
			i.name,
			i.calories,
			i.unit_price,
			i.quantity,
			i.line_total
		FROM
			orders o
			JOIN order_items i ON i.order_id = o.id
	`
	SelectOrderQuery = selectOrdersWithItems + `
		WHERE
			o.id = $1
		ORDER BY
			i.position
	`
	SelectAccountOrdersQuery = selectOrdersWithItems + `
		WHERE
			o.account_id = $1
		ORDER BY
			o.created_at DESC, o.id, i.position
	`
	SelectVendorOrdersQuery = selectOrdersWithItems + `
		WHERE
			o.vendor_id = $1
		ORDER BY
			o.created_at DESC, o.id, i.position
	`
	UpdateOrderStatusQuery = `
		UPDATE
			orders
		SET
			status = $3,
			updated_at = $4
		WHERE
			id = $1 AND status = $2
	`
	OrderExistsQuery = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

// FindOrder ищет заказ вместе с позициями. Возвращает ErrNotFound, если заказа нет.
func (d *Database) FindOrder(ctx context.Context, orderID string) (models.Order, error) {
	orders, err := d.queryOrders(ctx, SelectOrderQuery, orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("ошибка поиска заказа: %w", err)
	}

	if len(orders) == 0 {
		return models.Order{}, ErrNotFound
	}

	return orders[0], nil
}

// FindOrdersByAccount возвращает заказы покупателя, новые первыми.
func (d *Database) FindOrdersByAccount(ctx context.Context, accountID string) ([]models.Order, error) {
	orders, err := d.queryOrders(ctx, SelectAccountOrdersQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заказов покупателя: %w", err)
	}
	return orders, nil
}

// FindOrdersByVendor возвращает заказы, адресованные продавцу, новые первыми.
func (d *Database) FindOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error) {
	orders, err := d.queryOrders(ctx, SelectVendorOrdersQuery, vendorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заказов продавца: %w", err)
	}
	return orders, nil
}

// queryOrders собирает заказы из строк соединения orders и order_items.
// Строки одного заказа идут подряд, поэтому достаточно сравнивать с последним заказом.
func (d *Database) queryOrders(ctx context.Context, query string, arg string) ([]models.Order, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.Query(ctx, query, arg)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []models.Order
	for rows.Next() {
		var (
			order  models.Order
			item   models.LineItem
			status string
			paid   string
		)

		err := rows.Scan(
			&order.ID, &order.AccountID, &order.VendorID, &order.TotalAmount, &status, &paid,
			&order.Contact.Name, &order.Contact.Email, &order.Contact.MobileNumber,
			&order.DeliveryTime.Time, &order.CreatedAt.Time, &order.UpdatedAt.Time,
			&item.MenuItemID, &item.Name, &item.Calories, &item.UnitPrice, &item.Quantity, &item.LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка обработки строки с заказом: %w", mapError(err))
		}

		if n := len(result); n > 0 && result[n-1].ID == order.ID {
			result[n-1].Items = append(result[n-1].Items, item)
			continue
		}

		order.Status = models.OrderStatus(status)
		order.PaymentStatus = models.PaymentStatus(paid)
		order.DeliveryTime.Time = order.DeliveryTime.UTC()
		order.CreatedAt.Time = order.CreatedAt.UTC()
		order.UpdatedAt.Time = order.UpdatedAt.UTC()
		order.Items = []models.LineItem{item}
		result = append(result, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по строкам: %w", mapError(err))
	}

	return result, nil
}

// insertOrder вставляет заказ и его позиции внутри транзакции.
func insertOrder(ctx context.Context, tx pgx.Tx, order models.Order) error {
	_, err := tx.Exec(ctx, InsertOrderQuery,
		order.ID, order.AccountID, order.VendorID, order.TotalAmount.String(),
		string(order.Status), string(order.PaymentStatus),
		order.Contact.Name, order.Contact.Email, order.Contact.MobileNumber,
		order.DeliveryTime.Time, order.CreatedAt.Time, order.UpdatedAt.Time,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания заказа: %w", mapError(err))
	}

	batch := &pgx.Batch{}
	for i, item := range order.Items {
		batch.Queue(InsertOrderItemQuery,
			order.ID, i, item.MenuItemID, item.Name, item.Calories,
			item.UnitPrice.String(), item.Quantity, item.LineTotal.String(),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("ошибка создания позиций заказа: %w", mapError(err))
	}

	return nil
}

// setOrderStatus сравнивает и заменяет статус заказа внутри транзакции.
func setOrderStatus(ctx context.Context, exec DBExecutor, w StatusWrite) error {
	tag, err := exec.Exec(ctx, UpdateOrderStatusQuery, w.OrderID, string(w.From), string(w.To), w.At)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа: %w", mapError(err))
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRow(ctx, OrderExistsQuery, w.OrderID).Scan(&exists); err != nil {
		return fmt.Errorf("ошибка проверки заказа: %w", mapError(err))
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}
