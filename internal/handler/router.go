package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	custommiddleware "github.com/mmeshcher/ebuy-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware интернет-магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Demo-Token"},
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/products", h.ListProducts)

		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Post("/payments/mock", h.MockPayment)

		// Корзина и заказы доступны и анонимным сессиям:
		// токен разбирается, но не требуется.
		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Optional)

			r.Get("/cart", h.GetCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Patch("/cart/items/{productID}", h.UpdateCartItem)
			r.Delete("/cart/items/{productID}", h.RemoveCartItem)

			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.ListOrders)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Require)

			r.Route("/payment-methods", func(r chi.Router) {
				r.Get("/", h.ListPaymentMethods)
				r.Post("/", h.AddPaymentMethod)
				r.Get("/default", h.GetDefaultPaymentMethod)
				r.Get("/{id}", h.GetPaymentMethod)
				r.Put("/{id}", h.UpdatePaymentMethod)
				r.Delete("/{id}", h.DeletePaymentMethod)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
