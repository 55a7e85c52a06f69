package store

import (
	"database/sql"
	"fmt"

	"github.com/mwhitby/alcove/internal/model"
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func scanOrder(scanner interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	err := scanner.Scan(
		&o.ID, &o.ProductID, &o.Email, &o.AmountCents, &o.Currency,
		&o.StripeSessionID, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const orderCols = `id, product_id, email, amount_cents, currency, stripe_session_id, status, created_at`

func (s *OrderStore) Create(productID, amountCents int64, currency, stripeSessionID string) (*model.Order, error) {
	result, err := s.db.Exec(
		`INSERT INTO orders (product_id, amount_cents, currency, stripe_session_id) VALUES (?, ?, ?, ?)`,
		productID, amountCents, currency, stripeSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *OrderStore) GetByID(id int64) (*model.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *OrderStore) GetByStripeSessionID(sessionID string) (*model.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderCols+` FROM orders WHERE stripe_session_id = ?`, sessionID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order by stripe session: %w", err)
	}
	return o, nil
}

// MarkPaid records the completed checkout, filling in the buyer email from
// the Stripe session.
func (s *OrderStore) MarkPaid(stripeSessionID, email string) error {
	_, err := s.db.Exec(
		`UPDATE orders SET status = ?, email = ? WHERE stripe_session_id = ?`,
		model.OrderStatusPaid, email, stripeSessionID,
	)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	return nil
}

func (s *OrderStore) List() ([]model.Order, error) {
	rows, err := s.db.Query(`SELECT ` + orderCols + ` FROM orders ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
