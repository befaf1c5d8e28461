package service

import (
	"sort"
	"sync"
	"time"

	"github.com/mmeshcher/ebuy-system/internal/model"
)

// orderMirror хранит копии созданных заказов в памяти процесса. Зеркало
// обслуживает анонимные выборки заказов и смену статуса оплаты; оно не
// переживает перезапуск процесса.
type orderMirror struct {
	mu     sync.RWMutex
	orders map[string]model.Order
}

func newOrderMirror() *orderMirror {
	return &orderMirror{orders: make(map[string]model.Order)}
}

func (m *orderMirror) put(o model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[o.ID] = o
}

func (m *orderMirror) get(id string) (model.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	return o, ok
}

// setStatus обновляет статус заказа. PaidAt затирается только при
// непустом значении; при nil прежнее значение сохраняется.
func (m *orderMirror) setStatus(id string, status model.OrderStatus, paidAt *time.Time) (model.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, false
	}

	o.Status = status
	if paidAt != nil {
		o.PaidAt = paidAt
	}
	m.orders[id] = o

	return o, true
}

// bySession возвращает заказы сессии, новые первыми.
func (m *orderMirror) bySession(sessionKey string) []model.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []model.Order
	for _, o := range m.orders {
		if o.OwnerSessionKey == sessionKey {
			res = append(res, o)
		}
	}

	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })

	return res
}
