// Package cart реализует хранение корзин покупателей в памяти процесса.
package cart

import (
	"errors"
	"sort"
	"sync"

	"github.com/mmeshcher/ebuy-system/internal/catalog"
	"github.com/mmeshcher/ebuy-system/internal/model"
)

// ErrInvalidProduct возвращается при добавлении товара, которого нет в каталоге.
var (
	ErrInvalidProduct = errors.New("invalid product")
	// ErrNotInCart возвращается при изменении количества товара, которого нет в корзине.
	ErrNotInCart = errors.New("product not in cart")
)

// Store хранит корзины в памяти, по одной на ключ сессии. Содержимое
// теряется при перезапуске процесса; блокировка не удерживается дольше
// одной операции над картой.
type Store struct {
	mu      sync.RWMutex
	carts   map[string]map[string]int64
	catalog *catalog.Catalog
}

// NewStore создаёт пустое хранилище корзин поверх каталога.
func NewStore(c *catalog.Catalog) *Store {
	return &Store{
		carts:   make(map[string]map[string]int64),
		catalog: c,
	}
}

// Get возвращает снимок позиций корзины с ценами из каталога и промежуточный
// итог в центах. Позиции отсортированы по идентификатору товара.
func (s *Store) Get(sessionKey string) ([]model.CartLine, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.carts[sessionKey]

	lines := make([]model.CartLine, 0, len(c))
	var subtotal int64
	for productID, qty := range c {
		price, ok := s.catalog.Price(productID)
		if !ok {
			// Add не пропускает неизвестные товары, сюда попасть нельзя.
			continue
		}
		lines = append(lines, model.CartLine{
			ProductID:      productID,
			Quantity:       qty,
			UnitPriceCents: price,
		})
		subtotal += price * qty
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	return lines, subtotal
}

// Add добавляет товар в корзину сессии. Количество меньше единицы
// приводится к единице; повторное добавление увеличивает количество.
func (s *Store) Add(sessionKey, productID string, qty int64) error {
	if _, ok := s.catalog.Price(productID); !ok {
		return ErrInvalidProduct
	}

	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionKey]
	if !ok {
		c = make(map[string]int64)
		s.carts[sessionKey] = c
	}
	c[productID] += qty

	return nil
}

// SetQuantity устанавливает количество уже добавленного товара.
// Количество меньше единицы приводится к единице.
func (s *Store) SetQuantity(sessionKey, productID string, qty int64) error {
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionKey]
	if !ok {
		return ErrNotInCart
	}
	if _, ok := c[productID]; !ok {
		return ErrNotInCart
	}
	c[productID] = qty

	return nil
}

// Remove удаляет товар из корзины. Удаление отсутствующего товара — не ошибка.
func (s *Store) Remove(sessionKey, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.carts[sessionKey]; ok {
		delete(c, productID)
	}
}

// Clear очищает корзину сессии.
func (s *Store) Clear(sessionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionKey)
}
