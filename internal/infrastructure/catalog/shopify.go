// Package catalog загружает каталог товаров магазина: из Shopify Admin API или из файла.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const productsQuery = `query Products($first: Int!, $after: String) {
  products(first: $first, after: $after, sortKey: ID) {
    pageInfo { hasNextPage endCursor }
    edges {
      node {
        id
        title
        productType
        tags
        vendor
        featuredImage { url }
        collections(first: 10) { edges { node { title } } }
        variants(first: 1) { edges { node { price } } }
      }
    }
  }
}`

var errThrottled = errors.New("shopify throttled")

// ShopifySource читает товары через GraphQL Admin API с ограничением частоты запросов.
type ShopifySource struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiVersion string
	pageSize   int
	maxRetries int
	backoff    jitter.Policy
	endpoint   func(shop string) string
	logger     logger.Logger
}

// ShopifyOption настраивает ShopifySource.
type ShopifyOption func(*ShopifySource)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(hc *http.Client) ShopifyOption {
	return func(s *ShopifySource) {
		s.httpClient = hc
	}
}

// WithEndpoint подменяет адрес GraphQL (для тестов).
func WithEndpoint(fn func(shop string) string) ShopifyOption {
	return func(s *ShopifySource) {
		s.endpoint = fn
	}
}

// WithBackoff подменяет политику повторов.
func WithBackoff(p jitter.Policy) ShopifyOption {
	return func(s *ShopifySource) {
		s.backoff = p
	}
}

func NewShopifySource(c *cfg.ShopifyCfg, logger logger.Logger, opts ...ShopifyOption) *ShopifySource {
	pageSize := c.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 100
	}
	burst := c.Burst
	if burst <= 0 {
		burst = 1
	}
	retries := c.RequestRetry
	if retries <= 0 {
		retries = 1
	}

	s := &ShopifySource{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(c.RatePerSec), burst),
		apiVersion: c.APIVersion,
		pageSize:   pageSize,
		maxRetries: retries,
		backoff:    jitter.NewPolicy(1*time.Second, 5*time.Second, jitter.DefaultJitter),
		logger:     logger,
	}
	s.endpoint = func(shop string) string {
		return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, s.apiVersion)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type productsResponse struct {
	Data struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

type productNode struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	ProductType   string   `json:"productType"`
	Tags          []string `json:"tags"`
	Vendor        string   `json:"vendor"`
	FeaturedImage *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
	Collections struct {
		Edges []struct {
			Node struct {
				Title string `json:"title"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"collections"`
	Variants struct {
		Edges []struct {
			Node struct {
				Price string `json:"price"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

// FetchProducts выгружает товары постранично. При limit <= 0 лимита нет.
func (s *ShopifySource) FetchProducts(ctx context.Context, shop *domain.Shop, limit int) ([]domain.Product, error) {
	const op = "ShopifySource.FetchProducts"

	var (
		products []domain.Product
		cursor   string
	)

	for {
		first := s.pageSize
		if limit > 0 && limit-len(products) < first {
			first = limit - len(products)
		}

		page, err := s.fetchPage(ctx, shop, first, cursor)
		if err != nil {
			return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrCatalogFetch, err))
		}

		for _, edge := range page.Data.Products.Edges {
			p, err := toProduct(edge.Node)
			if err != nil {
				s.logger.Warnf("skip product %s: %v", edge.Node.ID, err)
				continue
			}
			products = append(products, p)
		}

		info := page.Data.Products.PageInfo
		if !info.HasNextPage || info.EndCursor == "" || (limit > 0 && len(products) >= limit) {
			break
		}
		cursor = info.EndCursor
	}

	s.logger.Infof("fetched %d products from %s", len(products), shop.Domain)
	return products, nil
}

func (s *ShopifySource) fetchPage(ctx context.Context, shop *domain.Shop, first int, cursor string) (*productsResponse, error) {
	vars := map[string]any{"first": first}
	if cursor != "" {
		vars["after"] = cursor
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		page, err := s.doRequest(ctx, shop, graphQLRequest{Query: productsQuery, Variables: vars})
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !errors.Is(err, errThrottled) || attempt == s.maxRetries-1 {
			break
		}

		sleepTime := s.backoff.Delay(attempt)
		s.logger.Warnf("shopify throttled, retrying in %v (attempt %d)", sleepTime, attempt+1)
		if err := jitter.Sleep(ctx, sleepTime); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (s *ShopifySource) doRequest(ctx context.Context, shop *domain.Shop, body graphQLRequest) (*productsResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(shop.Domain), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", shop.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", errThrottled, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("shopify status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode shopify response: %w", err)
	}

	if len(out.Errors) > 0 {
		first := out.Errors[0]
		if first.Extensions.Code == "THROTTLED" {
			return nil, fmt.Errorf("%w: %s", errThrottled, first.Message)
		}
		return nil, fmt.Errorf("shopify graphql: %s", first.Message)
	}

	return &out, nil
}

func toProduct(n productNode) (domain.Product, error) {
	price := decimal.Zero
	if len(n.Variants.Edges) > 0 {
		p, err := decimal.NewFromString(n.Variants.Edges[0].Node.Price)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%w: %q", e.ErrInvalidPrice, n.Variants.Edges[0].Node.Price)
		}
		price = p
	}

	p := domain.NewProduct(n.ID, n.Title, n.ProductType, n.Vendor, price)
	p.Tags = n.Tags
	for _, c := range n.Collections.Edges {
		p.Collections = append(p.Collections, c.Node.Title)
	}
	if n.FeaturedImage != nil {
		p.Image = n.FeaturedImage.URL
	}

	return *p, nil
}
