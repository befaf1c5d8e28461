package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/ebuy-system/internal/middleware"
	"github.com/mmeshcher/ebuy-system/internal/model"
	"github.com/mmeshcher/ebuy-system/internal/repository"
	"github.com/mmeshcher/ebuy-system/internal/service"
)

func authenticatedCaller(h *Handler, w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok || !caller.Authenticated {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return model.Caller{}, false
	}
	return caller, true
}

func paymentMethodID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return 0, false
	}
	return id, true
}

type paymentMethodSummary struct {
	ID             int64  `json:"id"`
	CardType       string `json:"cardType"`
	CardholderName string `json:"cardholderName"`
	LastFourDigits string `json:"lastFourDigits"`
	ExpiryDate     string `json:"expiryDate"`
	BillingZip     string `json:"billingZip"`
	IsDefault      bool   `json:"isDefault"`
	CreatedAt      string `json:"createdAt"`
}

// ListPaymentMethods возвращает способы оплаты текущего пользователя.
// Номера карт в список не входят.
func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticatedCaller(h, w, r)
	if !ok {
		return
	}

	methods, err := h.service.ListPaymentMethods(r.Context(), caller.UserID)
	if err != nil {
		h.logger.Error("list payment methods error", zap.Error(err), zap.Int64("userID", caller.UserID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]paymentMethodSummary, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, paymentMethodSummary{
			ID:             m.ID,
			CardType:       m.CardType,
			CardholderName: m.CardholderName,
			LastFourDigits: m.LastFourDigits,
			ExpiryDate:     m.ExpiryDate,
			BillingZip:     m.BillingZip,
			IsDefault:      m.IsDefault,
			CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type paymentMethodDetails struct {
	ID             int64  `json:"id"`
	CardType       string `json:"cardType"`
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	BillingZip     string `json:"billingZip"`
	IsDefault      bool   `json:"isDefault"`
}

// GetPaymentMethod возвращает один способ оплаты с маскированным номером карты.
func (h *Handler) GetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticatedCaller(h, w, r)
	if !ok {
		return
	}

	id, ok := paymentMethodID(w, r)
	if !ok {
		return
	}

	pm, masked, err := h.service.GetPaymentMethod(r.Context(), caller.UserID, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentMethodNotFound) {
			http.Error(w, "payment method not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get payment method error", zap.Error(err), zap.Int64("userID", caller.UserID), zap.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, paymentMethodDetails{
		ID:             pm.ID,
		CardType:       pm.CardType,
		CardholderName: pm.CardholderName,
		CardNumber:     masked,
		ExpiryDate:     pm.ExpiryDate,
		BillingZip:     pm.BillingZip,
		IsDefault:      pm.IsDefault,
	})
}

type addPaymentMethodRequest struct {
	CardType       string `json:"cardType"`
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
	BillingZip     string `json:"billingZip"`
	IsDefault      bool   `json:"isDefault"`
}

// AddPaymentMethod сохраняет новый способ оплаты текущего пользователя.
func (h *Handler) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticatedCaller(h, w, r)
	if !ok {
		return
	}

	var req addPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.CardType == "" || req.CardholderName == "" || req.CardNumber == "" ||
		req.ExpiryDate == "" || req.CVV == "" || req.BillingZip == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	id, err := h.service.AddPaymentMethod(r.Context(), caller.UserID, service.PaymentMethodInput{
		CardType:       req.CardType,
		CardholderName: req.CardholderName,
		CardNumber:     req.CardNumber,
		ExpiryDate:     req.ExpiryDate,
		CVV:            req.CVV,
		BillingZip:     req.BillingZip,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		h.logger.Error("add payment method error", zap.Error(err), zap.Int64("userID", caller.UserID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "payment method added",
		"id":      id,
	})
}

type updatePaymentMethodRequest struct {
	CardType       *string `json:"cardType"`
	CardholderName *string `json:"cardholderName"`
	CardNumber     *string `json:"cardNumber"`
	ExpiryDate     *string `json:"expiryDate"`
	CVV            *string `json:"cvv"`
	BillingZip     *string `json:"billingZip"`
	IsDefault      *bool   `json:"isDefault"`
}

// UpdatePaymentMethod применяет частичное обновление способа оплаты.
func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticatedCaller(h, w, r)
	if !ok {
		return
	}

	id, ok := paymentMethodID(w, r)
	if !ok {
		return
	}

	var req updatePaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.UpdatePaymentMethod(r.Context(), caller.UserID, id, service.PaymentMethodUpdateInput{
		CardType:       req.CardType,
		CardholderName: req.CardholderName,
		CardNumber:     req.CardNumber,
		ExpiryDate:     req.ExpiryDate,
		CVV:            req.CVV,
		BillingZip:     req.BillingZip,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentMethodNotFound):
			http.Error(w, "payment method not found", http.StatusNotFound)
		case errors.Is(err, service.ErrNoFieldsToUpdate):
			http.Error(w, "no fields to update", http.StatusBadRequest)
		default:
			h.logger.Error("update payment method error", zap.Error(err), zap.Int64("userID", caller.UserID), zap.Int64("id", id))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "payment method updated"})
}

// DeletePaymentMethod удаляет способ оплаты текущего пользователя.
func (h *Handler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticatedCaller(h, w, r)
	if !ok {
		return
	}

	id, ok := paymentMethodID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePaymentMethod(r.Context(), caller.UserID, id); err != nil {
		if errors.Is(err, repository.ErrPaymentMethodNotFound) {
			http.Error(w, "payment method not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete payment method error", zap.Error(err), zap.Int64("userID", caller.UserID), zap.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "payment method deleted"})
}

type defaultPaymentMethodResponse struct {
	ID             int64  `json:"id"`
	CardType       string `json:"cardType"`
	CardholderName string `json:"cardholderName"`
	LastFourDigits string `json:"lastFourDigits"`
	ExpiryDate     string `json:"expiryDate"`
}

// GetDefaultPaymentMethod возвращает способ оплаты по умолчанию для оформления заказа.
func (h *Handler) GetDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	caller, ok := authenticatedCaller(h, w, r)
	if !ok {
		return
	}

	pm, err := h.service.GetDefaultPaymentMethod(r.Context(), caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNoDefaultPaymentMethod) {
			http.Error(w, "no default payment method set", http.StatusNotFound)
			return
		}
		h.logger.Error("get default payment method error", zap.Error(err), zap.Int64("userID", caller.UserID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, defaultPaymentMethodResponse{
		ID:             pm.ID,
		CardType:       pm.CardType,
		CardholderName: pm.CardholderName,
		LastFourDigits: pm.LastFourDigits,
		ExpiryDate:     pm.ExpiryDate,
	})
}
