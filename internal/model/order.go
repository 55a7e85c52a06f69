package model

import (
	"fmt"
	"time"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

type Order struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id"`
	Email           string    `json:"email"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	StripeSessionID string    `json:"stripe_session_id"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// AmountDisplay formats the order total for templates, e.g. "$12.50".
func (o Order) AmountDisplay() string {
	symbol := "$"
	if o.Currency == "eur" {
		symbol = "€"
	}
	return fmt.Sprintf("%s%d.%02d", symbol, o.AmountCents/100, o.AmountCents%100)
}
