package cart

import (
	"errors"
	"testing"

	"github.com/mmeshcher/ebuy-system/internal/catalog"
)

func newTestStore() *Store {
	return NewStore(catalog.New())
}

func TestAdd_UnknownProduct(t *testing.T) {
	s := newTestStore()

	err := s.Add("guest", "Teapot", 1)
	if !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}

	lines, subtotal := s.Get("guest")
	if len(lines) != 0 || subtotal != 0 {
		t.Fatalf("cart must stay empty after failed add")
	}
}

func TestAdd_AccumulatesQuantity(t *testing.T) {
	s := newTestStore()

	if err := s.Add("guest", "Laptop", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("guest", "Laptop", 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines, subtotal := s.Get("guest")
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", lines[0].Quantity)
	}
	if subtotal != 5*20000 {
		t.Fatalf("subtotal = %d, want %d", subtotal, 5*20000)
	}
}

func TestAdd_ClampsNonPositiveQuantity(t *testing.T) {
	s := newTestStore()

	for _, qty := range []int64{0, -5} {
		s.Clear("guest")
		if err := s.Add("guest", "Headphones", qty); err != nil {
			t.Fatalf("add: %v", err)
		}
		lines, _ := s.Get("guest")
		if len(lines) != 1 || lines[0].Quantity != 1 {
			t.Fatalf("qty %d must be clamped to 1, got %+v", qty, lines)
		}
	}
}

func TestSetQuantity(t *testing.T) {
	s := newTestStore()

	if err := s.SetQuantity("guest", "Laptop", 3); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("expected ErrNotInCart for missing cart, got %v", err)
	}

	if err := s.Add("guest", "Laptop", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.SetQuantity("guest", "Headphones", 3); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("expected ErrNotInCart for missing line, got %v", err)
	}

	if err := s.SetQuantity("guest", "Laptop", 0); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	lines, _ := s.Get("guest")
	if lines[0].Quantity != 1 {
		t.Fatalf("quantity = %d, want clamped 1", lines[0].Quantity)
	}

	if err := s.SetQuantity("guest", "Laptop", 7); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	lines, _ = s.Get("guest")
	if lines[0].Quantity != 7 {
		t.Fatalf("quantity = %d, want 7", lines[0].Quantity)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	s := newTestStore()

	// Удаление из несуществующей корзины не должно паниковать.
	s.Remove("guest", "Laptop")

	if err := s.Add("guest", "Laptop", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Remove("guest", "Laptop")
	s.Remove("guest", "Laptop")

	lines, subtotal := s.Get("guest")
	if len(lines) != 0 || subtotal != 0 {
		t.Fatalf("cart must be empty after remove, got %+v", lines)
	}
}

func TestGet_SubtotalOverSurvivingLines(t *testing.T) {
	s := newTestStore()

	if err := s.Add("guest", "Laptop", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("guest", "Headphones", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("guest", "TV", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Remove("guest", "TV")

	_, subtotal := s.Get("guest")
	want := int64(2*20000 + 4900)
	if subtotal != want {
		t.Fatalf("subtotal = %d, want %d", subtotal, want)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestStore()

	if err := s.Add("alice", "Laptop", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines, _ := s.Get("bob")
	if len(lines) != 0 {
		t.Fatalf("bob's cart must be empty, got %+v", lines)
	}
}
