package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mwhitby/alcove/internal/auth"
	"github.com/mwhitby/alcove/internal/imagestore"
	"github.com/mwhitby/alcove/internal/model"
	"github.com/mwhitby/alcove/internal/store"
)

// productView pairs a product with its resolved image URL for templates.
type productView struct {
	model.Product
	ImageURL string
}

type ShopHandler struct {
	productStore *store.ProductStore
	images       *imagestore.Store
	templates    *template.Template
	logger       *slog.Logger
}

func NewShopHandler(ps *store.ProductStore, images *imagestore.Store, logger *slog.Logger) *ShopHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/shop_*.html"))
	return &ShopHandler{
		productStore: ps,
		images:       images,
		templates:    tmpl,
		logger:       logger,
	}
}

func (h *ShopHandler) imageURL(key string) string {
	if key == "" {
		return ""
	}
	if h.images != nil {
		if url := h.images.URL(key); url != "" {
			return url
		}
	}
	return "/images/" + key
}

func (h *ShopHandler) views(products []model.Product) []productView {
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{Product: p, ImageURL: h.imageURL(p.ImageKey)}
	}
	return views
}

func (h *ShopHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	products, err := h.productStore.List(true)
	if err != nil {
		h.logger.Error("list products", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.templates.ExecuteTemplate(w, "shop_home.html", map[string]any{
		"Title":    "Alcove",
		"Products": h.views(products),
		"LoggedIn": auth.UserID(r.Context()) != 0,
		"IsAdmin":  auth.IsAdmin(r.Context()),
	})
}

func (h *ShopHandler) ProductPage(w http.ResponseWriter, r *http.Request) {
	product, err := h.productStore.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.logger.Error("get product", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if product == nil || !product.Active {
		http.NotFound(w, r)
		return
	}

	h.templates.ExecuteTemplate(w, "shop_product.html", map[string]any{
		"Title":    product.Name + " — Alcove",
		"Product":  productView{Product: *product, ImageURL: h.imageURL(product.ImageKey)},
		"LoggedIn": auth.UserID(r.Context()) != 0,
	})
}

func (h *ShopHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	products, err := h.productStore.Search(query)
	if err != nil {
		h.logger.Error("search products", "error", err, "query", query)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.templates.ExecuteTemplate(w, "shop_search.html", map[string]any{
		"Title":    "Search — Alcove",
		"Query":    query,
		"Products": h.views(products),
		"LoggedIn": auth.UserID(r.Context()) != 0,
	})
}

// Image streams a product image through the app when object storage has no
// public base URL configured.
func (h *ShopHandler) Image(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		http.NotFound(w, r)
		return
	}

	key := r.PathValue("key")
	data, contentType, err := h.images.Get(r.Context(), key)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
