// Package model содержит доменные сущности бэкенда интернет-магазина.
package model

import "time"

// User представляет зарегистрированного покупателя.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	Address      *string
	CreatedAt    time.Time
}

// Caller описывает идентичность вызывающей стороны запроса: либо
// аутентифицированный пользователь, либо анонимная сессия.
type Caller struct {
	Authenticated bool
	UserID        int64
	Email         string
	FirstName     string
	LastName      string
	SessionKey    string
}

// CartLine описывает одну позицию корзины с ценой из каталога.
type CartLine struct {
	ProductID string
	Quantity  int64
	// UnitPriceCents — цена за единицу в центах на момент чтения каталога.
	UnitPriceCents int64
}

// OrderStatus описывает статус оплаты заказа.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// OrderItem описывает одну позицию заказа с зафиксированной ценой.
type OrderItem struct {
	ProductID      string
	Quantity       int64
	UnitPriceCents int64
	LineTotalCents int64
}

// Order описывает заказ, созданный из снимка корзины. Поля Status и PaidAt —
// единственные изменяемые после создания.
type Order struct {
	ID              string
	OwnerSessionKey string
	OwnerUserID     *int64
	Items           []OrderItem
	TotalCents      int64
	Status          OrderStatus
	CreatedAt       time.Time
	PaidAt          *time.Time
}

// PaymentMethod описывает сохранённый способ оплаты пользователя.
// Номер карты и CVV хранятся только в зашифрованном виде.
type PaymentMethod struct {
	ID                  int64
	OwnerUserID         int64
	CardType            string
	CardholderName      string
	CardNumberEncrypted string
	LastFourDigits      string
	ExpiryDate          string
	CVVEncrypted        string
	BillingZip          string
	IsDefault           bool
	CreatedAt           time.Time
}

// PaymentMethodUpdate описывает частичное обновление способа оплаты:
// изменяются только заполненные поля. LastFourDigits обновляется вместе
// с CardNumberEncrypted и отдельным полем обновления не считается.
type PaymentMethodUpdate struct {
	CardType            *string
	CardholderName      *string
	CardNumberEncrypted *string
	LastFourDigits      *string
	ExpiryDate          *string
	CVVEncrypted        *string
	BillingZip          *string
	IsDefault           *bool
}

// IsEmpty сообщает, что обновление не содержит ни одного поля.
func (u PaymentMethodUpdate) IsEmpty() bool {
	return u.CardType == nil &&
		u.CardholderName == nil &&
		u.CardNumberEncrypted == nil &&
		u.ExpiryDate == nil &&
		u.CVVEncrypted == nil &&
		u.BillingZip == nil &&
		u.IsDefault == nil
}
