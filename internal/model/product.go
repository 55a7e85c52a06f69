package model

import (
	"fmt"
	"time"
)

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	ImageKey    string    `json:"image_key"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceDisplay formats the price for templates, e.g. "$12.50".
func (p Product) PriceDisplay() string {
	symbol := "$"
	if p.Currency == "eur" {
		symbol = "€"
	}
	return fmt.Sprintf("%s%d.%02d", symbol, p.PriceCents/100, p.PriceCents%100)
}

// PriceInput formats the price without a currency symbol for form fields.
func (p Product) PriceInput() string {
	return fmt.Sprintf("%d.%02d", p.PriceCents/100, p.PriceCents%100)
}
