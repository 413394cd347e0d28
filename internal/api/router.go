package api

import (
	"log"
	"net/http"

	"github.com/example/animal-store/internal/api/middleware"
	"github.com/example/animal-store/internal/auth"
	"github.com/example/animal-store/internal/user"
)

// RouterConfig wires the handlers into the router.
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.Auth(cfg.JWTService)
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(user.RoleAdmin)(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("POST /api/auth/register", cfg.AuthHandlers.Register)
	mux.HandleFunc("POST /api/auth/login", cfg.AuthHandlers.Login)
	mux.HandleFunc("POST /api/auth/forgot-password", cfg.AuthHandlers.ForgotPassword)
	mux.HandleFunc("POST /api/auth/refresh", cfg.AuthHandlers.Refresh)
	mux.Handle("PUT /api/auth/profile", authed(cfg.AuthHandlers.UpdateProfile))
	mux.Handle("GET /api/auth/me", authed(cfg.AuthHandlers.Me))

	// Catalog (public reads; admin writes)
	mux.HandleFunc("GET /api/products", cfg.Handlers.GetProducts)
	mux.HandleFunc("GET /api/products/featured", cfg.Handlers.GetFeaturedProducts)
	mux.HandleFunc("GET /api/products/categories", cfg.Handlers.GetCategories)
	mux.HandleFunc("GET /api/products/{id}", cfg.Handlers.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/related", cfg.Handlers.GetRelatedProducts)
	mux.HandleFunc("GET /api/products/{id}/reviews", cfg.Handlers.GetReviews)
	mux.Handle("POST /api/products/{id}/reviews", authed(cfg.Handlers.AddReview))
	mux.Handle("POST /api/products", requireAdmin(cfg.Handlers.CreateProduct))
	mux.Handle("PUT /api/products/{id}", requireAdmin(cfg.Handlers.UpdateProduct))
	mux.Handle("DELETE /api/products/{id}", requireAdmin(cfg.Handlers.DeleteProduct))

	// Orders
	mux.Handle("POST /api/orders", authed(cfg.Handlers.PlaceOrder))
	mux.Handle("GET /api/orders/my", authed(cfg.Handlers.GetMyOrders))
	mux.Handle("GET /api/orders/all", requireAdmin(cfg.Handlers.GetAllOrders))
	mux.Handle("GET /api/orders/{id}", authed(cfg.Handlers.GetOrder))
	mux.Handle("PUT /api/orders/{id}/status", requireAdmin(cfg.Handlers.UpdateOrderStatus))
	mux.Handle("PUT /api/orders/{id}/edit", authed(cfg.Handlers.EditOrderDetails))
	mux.Handle("POST /api/orders/{id}/cancel", authed(cfg.Handlers.CancelOrder))

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
