package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
)

const jsonCatalog = `{"products":[
  {"id":"gid://shopify/Product/1","title":"ShoeA","product_type":"Footwear","price":"100.00","tags":["run"]},
  {"id":"gid://shopify/Product/2","title":"SockC","product_type":"Accessories","price":15}
]}`

const yamlCatalog = `products:
  - id: gid://shopify/Product/1
    title: ShoeA
    product_type: Footwear
    price: 100
    collections: [Summer]
  - id: gid://shopify/Product/2
    title: SockC
    product_type: Accessories
    price: "15.50"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestFileSourceJSON(t *testing.T) {
	products, err := NewFileSource(writeFile(t, "c.json", jsonCatalog)).FetchProducts(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d", len(products))
	}
	if products[1].Price.String() != "15" || products[0].Tags[0] != "run" {
		t.Fatalf("products = %+v", products)
	}
}

func TestFileSourceYAMLWithLimit(t *testing.T) {
	products, err := NewFileSource(writeFile(t, "c.yaml", yamlCatalog)).FetchProducts(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	if len(products) != 1 || products[0].Title != "ShoeA" || products[0].Collections[0] != "Summer" {
		t.Fatalf("products = %+v", products)
	}
	if products[0].Price.String() != "100" {
		t.Fatalf("price = %s", products[0].Price)
	}
}

func TestFileSourceErrors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).FetchProducts(context.Background(), nil, 0)
	if !errors.Is(err, e.ErrCatalogFetch) {
		t.Fatalf("missing file: %v", err)
	}

	if _, err := ParseCatalog(".csv", nil); !errors.Is(err, e.ErrUnsupportedCatalog) {
		t.Fatalf("csv: %v", err)
	}

	if _, err := ParseCatalog(".json", []byte(`{"products":[{"id":"1","price":"abc"}]}`)); !errors.Is(err, e.ErrInvalidPrice) {
		t.Fatalf("bad price: %v", err)
	}

	if _, err := ParseCatalog(".json", []byte(`{"products":[{"title":"no id"}]}`)); !errors.Is(err, e.ErrProductIDRequired) {
		t.Fatalf("no id: %v", err)
	}
}
