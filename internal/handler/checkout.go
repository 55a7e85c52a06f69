package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/mwhitby/alcove/internal/checkout"
	"github.com/mwhitby/alcove/internal/store"
)

const maxWebhookBodyBytes = 64 << 10

type CheckoutHandler struct {
	checkout     *checkout.Client
	productStore *store.ProductStore
	orderStore   *store.OrderStore
	logger       *slog.Logger
}

func NewCheckoutHandler(client *checkout.Client, ps *store.ProductStore, os *store.OrderStore, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:     client,
		productStore: ps,
		orderStore:   os,
		logger:       logger,
	}
}

// Start creates a Stripe checkout session for the product and redirects the
// buyer to Stripe's hosted payment page.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h.checkout == nil || !h.checkout.Configured() {
		http.Error(w, "Checkout is not available", http.StatusServiceUnavailable)
		return
	}

	product, err := h.productStore.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("load product for checkout", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if product == nil || !product.Active {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	sessionID, url, err := h.checkout.CreateProductCheckout(product)
	if err != nil {
		h.logger.Error("create checkout session", "product_id", product.ID, "error", err)
		http.Error(w, "Checkout failed", http.StatusBadGateway)
		return
	}

	if _, err := h.orderStore.Create(product.ID, product.PriceCents, product.Currency, sessionID); err != nil {
		h.logger.Error("record pending order", "product_id", product.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// HTMX cannot follow a cross-origin 303, so redirect the whole page
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Webhook handles Stripe events. Only checkout.session.completed is acted
// on; everything else is acknowledged and dropped.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	event, err := h.checkout.ConstructWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("stripe webhook signature rejected", "error", err)
		http.Error(w, "Bad signature", http.StatusBadRequest)
		return
	}

	if event.Type == "checkout.session.completed" {
		var sess struct {
			ID            string `json:"id"`
			CustomerEmail string `json:"customer_email"`
			CustomerInfo  struct {
				Email string `json:"email"`
			} `json:"customer_details"`
		}
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			h.logger.Error("parse checkout.session.completed", "error", err)
			http.Error(w, "Bad payload", http.StatusBadRequest)
			return
		}
		email := sess.CustomerEmail
		if email == "" {
			email = sess.CustomerInfo.Email
		}
		if err := h.orderStore.MarkPaid(sess.ID, email); err != nil {
			h.logger.Error("mark order paid", "stripe_session", sess.ID, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		h.logger.Info("order paid", "stripe_session", sess.ID)
	}

	w.WriteHeader(http.StatusOK)
}
