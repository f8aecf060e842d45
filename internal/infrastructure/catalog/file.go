package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// fileProduct — формат товара в файле каталога (JSON или YAML).
type fileProduct struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	ProductType string    `json:"product_type" yaml:"product_type"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Vendor      string    `json:"vendor" yaml:"vendor"`
	Collections []string  `json:"collections" yaml:"collections"`
	Price       flexPrice `json:"price" yaml:"price"`
	Image       string    `json:"image" yaml:"image"`
}

// flexPrice принимает цену и строкой, и числом.
type flexPrice string

func (p *flexPrice) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = flexPrice(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = flexPrice(n.String())
	return nil
}

type fileCatalog struct {
	Products []fileProduct `json:"products" yaml:"products"`
}

// FileSource читает каталог из локального файла. Используется для офлайн-прогонов из CLI.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// FetchProducts читает файл при каждом вызове; магазин не влияет на результат.
func (f *FileSource) FetchProducts(ctx context.Context, _ *domain.Shop, limit int) ([]domain.Product, error) {
	const op = "FileSource.FetchProducts"

	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrCatalogFetch, err))
	}

	products, err := ParseCatalog(filepath.Ext(f.path), data)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrCatalogFetch, err))
	}

	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

// ParseCatalog разбирает каталог по расширению файла (.json, .yaml, .yml).
func ParseCatalog(ext string, data []byte) ([]domain.Product, error) {
	var raw fileCatalog
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json catalog: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", e.ErrUnsupportedCatalog, ext)
	}

	out := make([]domain.Product, 0, len(raw.Products))
	for i, fp := range raw.Products {
		if strings.TrimSpace(fp.ID) == "" {
			return nil, fmt.Errorf("product #%d: %w", i, e.ErrProductIDRequired)
		}

		price := decimal.Zero
		if fp.Price != "" {
			p, err := decimal.NewFromString(string(fp.Price))
			if err != nil {
				return nil, fmt.Errorf("product %s: %w: %q", fp.ID, e.ErrInvalidPrice, fp.Price)
			}
			price = p
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %s: %w: negative", fp.ID, e.ErrInvalidPrice)
		}

		p := domain.NewProduct(fp.ID, fp.Title, fp.ProductType, fp.Vendor, price)
		p.Tags = fp.Tags
		p.Collections = fp.Collections
		p.Image = fp.Image
		out = append(out, *p)
	}

	return out, nil
}
