package handler

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/mwhitby/alcove/internal/imagestore"
	"github.com/mwhitby/alcove/internal/model"
	"github.com/mwhitby/alcove/internal/store"
	"github.com/mwhitby/alcove/internal/websocket"
)

const maxImageUploadBytes = 10 << 20

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a product name.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

type AdminHandler struct {
	productStore *store.ProductStore
	orderStore   *store.OrderStore
	images       *imagestore.Store
	hub          *websocket.Hub
	templates    *template.Template
	logger       *slog.Logger
}

func NewAdminHandler(ps *store.ProductStore, os *store.OrderStore, images *imagestore.Store, hub *websocket.Hub, logger *slog.Logger) *AdminHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/admin_*.html"))
	return &AdminHandler{
		productStore: ps,
		orderStore:   os,
		images:       images,
		hub:          hub,
		templates:    tmpl,
		logger:       logger,
	}
}

func (h *AdminHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *AdminHandler) ProductsPage(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.List(false)
	if err != nil {
		h.logger.Error("list products", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.templates.ExecuteTemplate(w, "admin_products.html", map[string]any{
		"Title":    "Products — Admin",
		"Products": products,
	})
}

func (h *AdminHandler) OrdersPage(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderStore.List()
	if err != nil {
		h.logger.Error("list orders", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.templates.ExecuteTemplate(w, "admin_orders.html", map[string]any{
		"Title":  "Orders — Admin",
		"Orders": orders,
	})
}

// ProductList renders the table body partial (HTMX).
func (h *AdminHandler) ProductList(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.List(false)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.templates.ExecuteTemplate(w, "product-rows", map[string]any{"Products": products})
}

func (h *AdminHandler) ProductNewForm(w http.ResponseWriter, r *http.Request) {
	h.templates.ExecuteTemplate(w, "product-form", nil)
}

func (h *AdminHandler) ProductEditForm(w http.ResponseWriter, r *http.Request) {
	product, err := h.productFromPath(r)
	if err != nil || product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	h.templates.ExecuteTemplate(w, "product-form", map[string]any{"Product": product})
}

func (h *AdminHandler) ProductCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	priceCents, err := parsePriceCents(r.FormValue("price"))
	if err != nil {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return
	}

	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		slug = Slugify(name)
	}

	product, err := h.productStore.Create(name, slug, strings.TrimSpace(r.FormValue("description")), priceCents, r.FormValue("currency"))
	if err != nil {
		h.logger.Error("create product", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.broadcast(websocket.NewMessage("product", "created", product.ID, nil))
	h.ProductList(w, r)
}

func (h *AdminHandler) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	product, err := h.productFromPath(r)
	if err != nil || product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	priceCents, err := parsePriceCents(r.FormValue("price"))
	if err != nil {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return
	}

	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		slug = product.Slug
	}
	active := r.FormValue("active") == "on" || r.FormValue("active") == "true"

	updated, err := h.productStore.Update(product.ID, name, slug, strings.TrimSpace(r.FormValue("description")), priceCents, r.FormValue("currency"), active)
	if err != nil {
		h.logger.Error("update product", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.broadcast(websocket.NewMessage("product", "updated", updated.ID, map[string]any{"slug": updated.Slug}))
	h.ProductList(w, r)
}

func (h *AdminHandler) ProductDelete(w http.ResponseWriter, r *http.Request) {
	product, err := h.productFromPath(r)
	if err != nil || product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	if product.ImageKey != "" && h.images != nil {
		if err := h.images.Delete(r.Context(), product.ImageKey); err != nil {
			h.logger.Warn("delete product image", "error", err)
		}
	}

	if err := h.productStore.Delete(product.ID); err != nil {
		h.logger.Error("delete product", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.broadcast(websocket.NewMessage("product", "deleted", product.ID, nil))
	h.ProductList(w, r)
}

// ProductImageUpload stores the uploaded image in object storage and points
// the product at the new key.
func (h *AdminHandler) ProductImageUpload(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		http.Error(w, "Image storage not configured", http.StatusServiceUnavailable)
		return
	}

	product, err := h.productFromPath(r)
	if err != nil || product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	key, err := h.images.Upload(r.Context(), header.Filename, contentType, data)
	if err != nil {
		h.logger.Error("upload product image", "error", err)
		http.Error(w, "Upload failed", http.StatusBadGateway)
		return
	}

	// Replace, then clean up the old object
	oldKey := product.ImageKey
	if err := h.productStore.SetImageKey(product.ID, key); err != nil {
		h.logger.Error("set product image", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if oldKey != "" {
		if err := h.images.Delete(r.Context(), oldKey); err != nil {
			h.logger.Warn("delete old product image", "error", err)
		}
	}

	h.broadcast(websocket.NewMessage("product", "updated", product.ID, map[string]any{"slug": product.Slug}))
	h.ProductList(w, r)
}

func (h *AdminHandler) productFromPath(r *http.Request) (*model.Product, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return h.productStore.GetByID(id)
}

// parsePriceCents converts a "12.50" style form value to cents.
func parsePriceCents(s string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative price %q", s)
	}
	return int64(f*100 + 0.5), nil
}
