// Package service реализует бизнес-логику бэкенда интернет-магазина.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/ebuy-system/internal/cart"
	"github.com/mmeshcher/ebuy-system/internal/model"
	"github.com/mmeshcher/ebuy-system/internal/repository"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyCart возвращается при попытке оформить заказ из пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound возвращается, если заказ неизвестен зеркалу заказов.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoFieldsToUpdate возвращается, если обновление способа оплаты не содержит полей.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus, paidAt *time.Time) error
	CreatePaymentMethod(ctx context.Context, pm *model.PaymentMethod) (int64, error)
	GetPaymentMethod(ctx context.Context, id, userID int64) (*model.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, userID int64) ([]model.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, id, userID int64, upd model.PaymentMethodUpdate) error
	DeletePaymentMethod(ctx context.Context, id, userID int64) error
	GetDefaultPaymentMethod(ctx context.Context, userID int64) (*model.PaymentMethod, error)
}

// Service содержит бизнес-логику бэкенда интернет-магазина.
type Service struct {
	repo       Repository
	carts      *cart.Store
	mirror     *orderMirror
	paymentKey string
	logger     *zap.Logger
}

// NewService создаёт сервис с указанным репозиторием, хранилищем корзин и
// ключом шифрования платёжных данных.
func NewService(repo Repository, carts *cart.Store, paymentKey string, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		carts:      carts,
		mirror:     newOrderMirror(),
		paymentKey: paymentKey,
		logger:     logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового покупателя.
func (s *Service) RegisterUser(ctx context.Context, email, firstName, lastName, password string, address *string) (int64, error) {
	u := &model.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hashPassword(email, password),
		Address:      address,
	}

	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет email и пароль и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hashed := hashPassword(email, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func hashPassword(email, password string) []byte {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return sum[:]
}

// GetCart возвращает содержимое корзины вызывающей стороны и промежуточный итог.
func (s *Service) GetCart(caller model.Caller) ([]model.CartLine, int64) {
	return s.carts.Get(caller.SessionKey)
}

// AddToCart добавляет товар в корзину вызывающей стороны.
func (s *Service) AddToCart(caller model.Caller, productID string, qty int64) error {
	return s.carts.Add(caller.SessionKey, productID, qty)
}

// SetCartQuantity устанавливает количество товара в корзине вызывающей стороны.
func (s *Service) SetCartQuantity(caller model.Caller, productID string, qty int64) error {
	return s.carts.SetQuantity(caller.SessionKey, productID, qty)
}

// RemoveFromCart удаляет товар из корзины вызывающей стороны.
func (s *Service) RemoveFromCart(caller model.Caller, productID string) {
	s.carts.Remove(caller.SessionKey, productID)
}
