package service

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/ebuy-system/internal/model"
)

// PaymentOutcomeSuccess — исход имитации оплаты, переводящий заказ в paid.
const PaymentOutcomeSuccess = "success"

// CreateOrder оформляет заказ из корзины вызывающей стороны: снимок корзины
// фиксируется, заказ и его позиции сохраняются в БД одной транзакцией, и
// только после успешной записи заказ попадает в зеркало, а корзина очищается.
// При ошибке записи корзина остаётся нетронутой.
func (s *Service) CreateOrder(ctx context.Context, caller model.Caller) (*model.Order, error) {
	lines, total := s.carts.Get(caller.SessionKey)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			LineTotalCents: l.UnitPriceCents * l.Quantity,
		})
	}

	order := &model.Order{
		ID:              newOrderID(),
		OwnerSessionKey: caller.SessionKey,
		Items:           items,
		TotalCents:      total,
		Status:          model.OrderStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if caller.Authenticated {
		userID := caller.UserID
		order.OwnerUserID = &userID
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.mirror.put(*order)
	s.carts.Clear(caller.SessionKey)

	return order, nil
}

// newOrderID возвращает случайный идентификатор заказа из 12 шестнадцатеричных
// символов. Уникальность не проверяется: реальной защитой от коллизии служит
// первичный ключ таблицы заказов.
func newOrderID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

// ListOrders возвращает заказы вызывающей стороны. Для аутентифицированных
// пользователей читается БД, для анонимных сессий — зеркало заказов в памяти.
// Анонимная история теряется при перезапуске процесса.
func (s *Service) ListOrders(ctx context.Context, caller model.Caller) ([]model.Order, error) {
	if caller.Authenticated {
		return s.repo.GetOrdersByUser(ctx, caller.UserID)
	}
	return s.mirror.bySession(caller.SessionKey), nil
}

// SettlePayment применяет исход имитации оплаты к заказу. Зеркало
// обновляется безусловно; запись в БД выполняется по возможности, её
// ошибка логируется и не срывает операцию — в отличие от создания заказа,
// где успех записи обязателен.
func (s *Service) SettlePayment(ctx context.Context, orderID, outcome string) (*model.Order, error) {
	if _, ok := s.mirror.get(orderID); !ok {
		return nil, ErrOrderNotFound
	}

	status := model.OrderStatusFailed
	var paidAt *time.Time
	if outcome == PaymentOutcomeSuccess {
		status = model.OrderStatusPaid
		now := time.Now().UTC()
		paidAt = &now
	}

	updated, ok := s.mirror.setStatus(orderID, status, paidAt)
	if !ok {
		return nil, ErrOrderNotFound
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, status, paidAt); err != nil {
		s.logger.Error("persist payment status",
			zap.Error(err),
			zap.String("orderID", orderID),
			zap.String("status", string(status)),
		)
	}

	return &updated, nil
}
