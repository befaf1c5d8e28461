// Package catalog содержит статический каталог товаров магазина.
package catalog

import "sort"

// Product описывает товар каталога.
type Product struct {
	ID         string
	PriceCents int64
}

// Catalog предоставляет доступ к фиксированному набору товаров и их ценам.
type Catalog struct {
	prices map[string]int64
}

// New создаёт каталог со стандартным набором товаров.
func New() *Catalog {
	return &Catalog{prices: map[string]int64{
		"Refrigerator":    50000,
		"Microwave":       30000,
		"Dishwasher":      45000,
		"Oven":            55000,
		"Washer":          60000,
		"Dryer":           60000,
		"Blender":         10000,
		"DripCoffee":      15000,
		"Laptop":          20000,
		"TV":              39900,
		"Speaker":         19900,
		"OutDatedVinyl":   5000,
		"Switch2":         49900,
		"PlayStation5":    59900,
		"XboxS":           39900,
		"OutDatedGameBoy": 5900,
		"Headphones":      4900,
		"IPad":            29900,
		"GamingDesktop":   99900,
		"Printer":         23000,
		"Monitor":         75000,
		"Camera":          70000,
		"SmartWatch":      29900,
		"Vaccum":          10000,
	}}
}

// Price возвращает цену товара в центах. Второе значение — признак того,
// что товар есть в каталоге.
func (c *Catalog) Price(productID string) (int64, bool) {
	p, ok := c.prices[productID]
	return p, ok
}

// List возвращает все товары каталога, отсортированные по идентификатору.
func (c *Catalog) List() []Product {
	res := make([]Product, 0, len(c.prices))
	for id, price := range c.prices {
		res = append(res, Product{ID: id, PriceCents: price})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
