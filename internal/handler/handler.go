// Package handler содержит HTTP-обработчики API интернет-магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/ebuy-system/internal/cart"
	"github.com/mmeshcher/ebuy-system/internal/catalog"
	"github.com/mmeshcher/ebuy-system/internal/middleware"
	"github.com/mmeshcher/ebuy-system/internal/model"
	"github.com/mmeshcher/ebuy-system/internal/repository"
	"github.com/mmeshcher/ebuy-system/internal/service"
	"github.com/mmeshcher/ebuy-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, email, firstName, lastName, password string, address *string) (int64, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	GetCart(caller model.Caller) ([]model.CartLine, int64)
	AddToCart(caller model.Caller, productID string, qty int64) error
	SetCartQuantity(caller model.Caller, productID string, qty int64) error
	RemoveFromCart(caller model.Caller, productID string)
	CreateOrder(ctx context.Context, caller model.Caller) (*model.Order, error)
	ListOrders(ctx context.Context, caller model.Caller) ([]model.Order, error)
	SettlePayment(ctx context.Context, orderID, outcome string) (*model.Order, error)
	AddPaymentMethod(ctx context.Context, userID int64, in service.PaymentMethodInput) (int64, error)
	GetPaymentMethod(ctx context.Context, userID, id int64) (*model.PaymentMethod, string, error)
	ListPaymentMethods(ctx context.Context, userID int64) ([]model.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, userID, id int64, in service.PaymentMethodUpdateInput) error
	DeletePaymentMethod(ctx context.Context, userID, id int64) error
	GetDefaultPaymentMethod(ctx context.Context, userID int64) (*model.PaymentMethod, error)
}

// Handler реализует HTTP-обработчики API интернет-магазина.
type Handler struct {
	service        Service
	catalog        *catalog.Catalog
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, c *catalog.Catalog, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		catalog:        c,
		logger:         logger,
		authMiddleware: auth,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Health отвечает на проверку работоспособности сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Address   string `json:"address"`
}

// Register обрабатывает регистрацию нового покупателя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if !validation.IsValidEmail(req.Email) ||
		!validation.IsValidName(req.FirstName) ||
		!validation.IsValidName(req.LastName) ||
		!validation.IsValidPassword(req.Password) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var address *string
	if a := strings.TrimSpace(req.Address); a != "" {
		address = &a
	}

	id, err := h.service.RegisterUser(r.Context(), req.Email, req.FirstName, req.LastName, req.Password, address)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "email": req.Email})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Login выполняет аутентификацию покупателя и выпускает токен доступа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !validation.IsValidEmail(req.Email) || !validation.IsValidPassword(req.Password) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, err := h.authMiddleware.IssueToken(u)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": userResponse{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
	})
}

type productResponse struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

// ListProducts возвращает каталог товаров.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.List()

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{ID: p.ID, Price: float64(p.PriceCents) / 100})
	}

	writeJSON(w, http.StatusOK, resp)
}

type cartItemResponse struct {
	ProductID string  `json:"productId"`
	Qty       int64   `json:"qty"`
	Price     float64 `json:"price"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal float64            `json:"subtotal"`
}

func callerOr500(h *Handler, w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.logger.Error("caller missing from request context", zap.String("uri", r.RequestURI))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return model.Caller{}, false
	}
	return caller, true
}

// GetCart возвращает содержимое корзины вызывающей стороны.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr500(h, w, r)
	if !ok {
		return
	}

	lines, subtotal := h.service.GetCart(caller)

	resp := cartResponse{
		Items:    make([]cartItemResponse, 0, len(lines)),
		Subtotal: float64(subtotal) / 100,
	}
	for _, l := range lines {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID: l.ProductID,
			Qty:       l.Quantity,
			Price:     float64(l.UnitPriceCents) / 100,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type cartAddRequest struct {
	ProductID string `json:"productId"`
	Qty       int64  `json:"qty"`
}

// AddCartItem добавляет товар в корзину.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr500(h, w, r)
	if !ok {
		return
	}

	var req cartAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.AddToCart(caller, req.ProductID, req.Qty); err != nil {
		if errors.Is(err, cart.ErrInvalidProduct) {
			http.Error(w, "invalid product", http.StatusBadRequest)
			return
		}
		h.logger.Error("add cart item error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type cartUpdateRequest struct {
	Qty int64 `json:"qty"`
}

// UpdateCartItem устанавливает количество товара в корзине.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr500(h, w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")

	var req cartUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SetCartQuantity(caller, productID, req.Qty); err != nil {
		if errors.Is(err, cart.ErrNotInCart) {
			http.Error(w, "not in cart", http.StatusNotFound)
			return
		}
		h.logger.Error("update cart item error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RemoveCartItem удаляет товар из корзины. Отсутствие товара — не ошибка.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr500(h, w, r)
	if !ok {
		return
	}

	h.service.RemoveFromCart(caller, chi.URLParam(r, "productID"))

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Qty       int64   `json:"qty"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	User      string              `json:"user"`
	Items     []orderItemResponse `json:"items"`
	Total     float64             `json:"total"`
	Status    string              `json:"status"`
	CreatedAt string              `json:"createdAt"`
	PaidAt    *string             `json:"paidAt,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		User:      o.OwnerSessionKey,
		Items:     make([]orderItemResponse, 0, len(o.Items)),
		Total:     float64(o.TotalCents) / 100,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: it.ProductID,
			Qty:       it.Quantity,
			Price:     float64(it.UnitPriceCents) / 100,
		})
	}
	if o.PaidAt != nil {
		s := o.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &s
	}
	return resp
}

// CreateOrder оформляет заказ из корзины вызывающей стороны.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr500(h, w, r)
	if !ok {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), caller)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			http.Error(w, "cart empty", http.StatusBadRequest)
			return
		}
		h.logger.Error("create order error", zap.Error(err), zap.String("session", caller.SessionKey))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListOrders возвращает заказы вызывающей стороны.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr500(h, w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), caller)
	if err != nil {
		h.logger.Error("list orders error", zap.Error(err), zap.String("session", caller.SessionKey))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

type mockPaymentRequest struct {
	OrderID string `json:"orderId"`
	Outcome string `json:"outcome"`
}

// MockPayment применяет исход имитации оплаты к заказу.
func (h *Handler) MockPayment(w http.ResponseWriter, r *http.Request) {
	var req mockPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Outcome == "" {
		req.Outcome = service.PaymentOutcomeSuccess
	}

	order, err := h.service.SettlePayment(r.Context(), req.OrderID, req.Outcome)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("mock payment error", zap.Error(err), zap.String("orderID", req.OrderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}
