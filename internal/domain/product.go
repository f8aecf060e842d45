package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ShopifyProductGIDPrefix — префикс глобального идентификатора продукта Shopify.
const ShopifyProductGIDPrefix = "gid://shopify/Product/"

// Product описывает товар каталога магазина. Неизменяем в рамках одного прогона синхронизации.
type Product struct {
	ID          string // непрозрачный идентификатор (Shopify GID)
	Title       string
	ProductType string // категория
	Tags        []string
	Vendor      string
	Collections []string
	Price       decimal.Decimal // цена первого варианта
	Image       string          // URL, может быть пустым
}

func NewProduct(id, title, productType, vendor string, price decimal.Decimal) *Product {
	return &Product{
		ID:          id,
		Title:       title,
		ProductType: productType,
		Vendor:      vendor,
		Price:       price,
	}
}

// NormalizeProductID приводит числовой идентификатор к Shopify GID. GID возвращается без изменений.
func NormalizeProductID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("empty product id")
	}

	if strings.HasPrefix(id, ShopifyProductGIDPrefix) {
		if _, err := strconv.ParseUint(strings.TrimPrefix(id, ShopifyProductGIDPrefix), 10, 64); err != nil {
			return "", fmt.Errorf("malformed product gid %q", id)
		}
		return id, nil
	}

	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", fmt.Errorf("malformed product id %q", id)
	}

	return ShopifyProductGIDPrefix + id, nil
}

// Catalog — индекс товаров по идентификатору с сохранением исходного порядка.
// Повторы идентификатора отбрасываются, первый товар выигрывает.
type Catalog struct {
	products   []Product
	byID       map[string]int
	duplicates int
}

func NewCatalog(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if _, ok := c.byID[p.ID]; ok {
			c.duplicates++
			continue
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	return c
}

// Get возвращает товар по идентификатору.
func (c *Catalog) Get(id string) (*Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.products[i], true
}

// Products возвращает товары в исходном порядке.
func (c *Catalog) Products() []Product {
	return c.products
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Duplicates — сколько товаров отброшено из-за повторного идентификатора.
func (c *Catalog) Duplicates() int {
	return c.duplicates
}
