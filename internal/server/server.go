package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mwhitby/alcove/internal/auth"
	"github.com/mwhitby/alcove/internal/chat"
	"github.com/mwhitby/alcove/internal/checkout"
	"github.com/mwhitby/alcove/internal/handler"
	"github.com/mwhitby/alcove/internal/imagestore"
	"github.com/mwhitby/alcove/internal/middleware"
	"github.com/mwhitby/alcove/internal/store"
	ws "github.com/mwhitby/alcove/internal/websocket"
)

// Config carries everything the server needs beyond the database handle.
type Config struct {
	BaseURL  string
	Mailer   auth.Mailer
	Images   imagestore.Config
	Checkout checkout.Config
	Chat     chat.Config
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authH       *handler.AuthHandler
	shopH       *handler.ShopHandler
	adminH      *handler.AdminHandler
	chatH       *handler.ChatHandler
	checkoutH   *handler.CheckoutHandler
	userStore   *store.UserStore
	tokenStore  *store.LoginTokenStore
	sessions    *store.SessionStore
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	tokenStore := store.NewLoginTokenStore(db)
	sessionStore := store.NewSessionStore(db)
	productStore := store.NewProductStore(db)
	chatStore := store.NewChatStore(db)
	orderStore := store.NewOrderStore(db)

	authn := auth.NewAuthenticator(userStore, tokenStore, sessionStore, cfg.Mailer, cfg.BaseURL, logger.With("component", "auth"))
	images := imagestore.New(cfg.Images)
	checkoutClient := checkout.NewClient(cfg.Checkout)
	responder := chat.NewResponder(cfg.Chat, logger.With("component", "chat"))

	return &Server{
		db:          db,
		hub:         hub,
		authH:       handler.NewAuthHandler(authn, userStore, logger.With("component", "auth_handler")),
		shopH:       handler.NewShopHandler(productStore, images, logger.With("component", "shop")),
		adminH:      handler.NewAdminHandler(productStore, orderStore, images, hub, logger.With("component", "admin")),
		chatH:       handler.NewChatHandler(authn, chatStore, responder, hub, logger.With("component", "chat_handler")),
		checkoutH:   handler.NewCheckoutHandler(checkoutClient, productStore, orderStore, logger.With("component", "checkout")),
		userStore:   userStore,
		tokenStore:  tokenStore,
		sessions:    sessionStore,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessions
}

// LoginTokenStore returns the token store for cleanup tasks.
func (s *Server) LoginTokenStore() *store.LoginTokenStore {
	return s.tokenStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	// Routes outside the session loader: no cookie should be minted for
	// webhooks, health probes, or static assets.
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("POST /webhooks/stripe", s.checkoutH.Webhook)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	mux := http.NewServeMux()

	// Storefront and auth
	mux.HandleFunc("GET /", s.shopH.Home)
	mux.HandleFunc("GET /products/{slug}", s.shopH.ProductPage)
	mux.HandleFunc("GET /search", s.shopH.Search)
	mux.HandleFunc("GET /images/{key...}", s.shopH.Image)
	mux.HandleFunc("GET /login", s.authH.LoginPage)
	mux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("GET /auth/verify", s.authH.Verify)
	mux.HandleFunc("POST /logout", s.authH.Logout)

	mux.HandleFunc("POST /products/{slug}/checkout", s.checkoutH.Start)

	// Chat partials (HTMX)
	mux.HandleFunc("GET /partials/chat", s.chatH.Widget)
	mux.HandleFunc("POST /partials/chat/messages", s.rateLimitedHandler(s.chatH.SendMessage))

	mux.Handle("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Routes that require a signed-in user
	requireLogin := middleware.RequireLogin(s.sessions)
	mux.Handle("GET /account", requireLogin(http.HandlerFunc(s.authH.AccountPage)))

	// Admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /admin/products", s.adminH.ProductsPage)
	adminMux.HandleFunc("GET /admin/orders", s.adminH.OrdersPage)
	adminMux.HandleFunc("GET /partials/admin/products", s.adminH.ProductList)
	adminMux.HandleFunc("GET /partials/admin/products/new", s.adminH.ProductNewForm)
	adminMux.HandleFunc("GET /partials/admin/products/{id}/edit", s.adminH.ProductEditForm)
	adminMux.HandleFunc("POST /partials/admin/products", s.adminH.ProductCreate)
	adminMux.HandleFunc("PUT /partials/admin/products/{id}", s.adminH.ProductUpdate)
	adminMux.HandleFunc("DELETE /partials/admin/products/{id}", s.adminH.ProductDelete)
	adminMux.HandleFunc("POST /partials/admin/products/{id}/image", s.adminH.ProductImageUpload)
	mux.Handle("/admin/", requireLogin(middleware.RequireAdmin(adminMux)))
	mux.Handle("/partials/admin/", requireLogin(middleware.RequireAdmin(adminMux)))

	loadSession := middleware.LoadSession(s.sessions, s.userStore, s.logger.With("component", "session"))
	outerMux.Handle("/", loadSession(mux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
