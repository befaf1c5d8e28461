package catalog

import "testing"

func TestPrice_KnownProduct(t *testing.T) {
	c := New()

	price, ok := c.Price("Laptop")
	if !ok {
		t.Fatalf("Laptop must be in catalog")
	}
	if price != 20000 {
		t.Fatalf("Laptop price = %d, want 20000", price)
	}
}

func TestPrice_UnknownProduct(t *testing.T) {
	c := New()

	if _, ok := c.Price("Teapot"); ok {
		t.Fatalf("unknown product must not be in catalog")
	}
}

func TestList_SortedAndComplete(t *testing.T) {
	c := New()

	products := c.List()
	if len(products) != 24 {
		t.Fatalf("len(products) = %d, want 24", len(products))
	}

	for i := 1; i < len(products); i++ {
		if products[i-1].ID >= products[i].ID {
			t.Fatalf("products not sorted: %q before %q", products[i-1].ID, products[i].ID)
		}
	}

	for _, p := range products {
		if p.PriceCents <= 0 {
			t.Fatalf("product %q has non-positive price %d", p.ID, p.PriceCents)
		}
	}
}
