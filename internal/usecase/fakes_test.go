package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/internal/pipeline"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
)

type fakeShopRepo struct {
	shops map[string]*domain.Shop
}

func newFakeShopRepo(shops ...*domain.Shop) *fakeShopRepo {
	r := &fakeShopRepo{shops: make(map[string]*domain.Shop)}
	for _, s := range shops {
		r.shops[s.Domain] = s
	}
	return r
}

func (r *fakeShopRepo) Upsert(_ context.Context, shop *domain.Shop) (*domain.Shop, error) {
	saved := *shop
	if prev, ok := r.shops[shop.Domain]; ok {
		saved.CreatedAt = prev.CreatedAt
	} else {
		saved.CreatedAt = time.Now().UTC()
	}
	r.shops[shop.Domain] = &saved
	return &saved, nil
}

func (r *fakeShopRepo) Get(_ context.Context, d string) (*domain.Shop, error) {
	s, ok := r.shops[d]
	if !ok {
		return nil, e.ErrShopNotFound
	}
	return s, nil
}

type fakeCatalog struct {
	products []domain.Product
	err      error
	block    chan struct{} // если задан, FetchProducts ждёт закрытия
}

func (c *fakeCatalog) FetchProducts(ctx context.Context, _ *domain.Shop, _ int) ([]domain.Product, error) {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.products, nil
}

// fakeEmbedder отдаёт вектор по первому слову текста (заголовку товара).
type fakeEmbedder struct {
	vectors map[string][]float64
	failAt  int // номер вызова (с 1), на котором вернуть ошибку
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, errors.New("model crashed")
	}
	key := strings.Fields(text)[0]
	v, ok := f.vectors[key]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", key)
	}
	return v, nil
}

// memRecRepo хранит строки в памяти; memTransactor откатывает их при ошибке.
type memRecRepo struct {
	mu        sync.Mutex
	rows      map[string]domain.Recommendation
	getErrs   int // сколько первых вызовов GetActive завершить ошибкой
	getCalls  int
	upsertErr error
	onGet     func() // вызывается после чтения строк, до возврата
}

func newMemRecRepo() *memRecRepo {
	return &memRecRepo{rows: make(map[string]domain.Recommendation)}
}

func rowKey(r domain.Recommendation) string {
	return r.Shop + "|" + r.SourceProductID + "|" + r.RecommendedProductID
}

func (m *memRecRepo) DeactivateShop(_ context.Context, shop string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, r := range m.rows {
		if r.Shop == shop && r.IsActive {
			r.IsActive = false
			m.rows[k] = r
			n++
		}
	}
	return n, nil
}

func (m *memRecRepo) UpsertBatch(_ context.Context, recs []domain.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, r := range recs {
		m.rows[rowKey(r)] = r
	}
	return nil
}

func (m *memRecRepo) GetActive(_ context.Context, shop, source string, limit int) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getCalls <= m.getErrs {
		return nil, errors.New("connection refused")
	}
	var out []domain.Recommendation
	for _, r := range m.rows {
		if r.Shop == shop && r.SourceProductID == source && r.IsActive {
			out = append(out, r)
		}
	}
	sortByPriority(out)
	if len(out) > limit {
		out = out[:limit]
	}
	if m.onGet != nil {
		m.onGet()
	}
	return out, nil
}

func (m *memRecRepo) active(shop string) []domain.Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recommendation
	for _, r := range m.rows {
		if r.Shop == shop && r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

func (m *memRecRepo) snapshot() map[string]domain.Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]domain.Recommendation, len(m.rows))
	for k, v := range m.rows {
		cp[k] = v
	}
	return cp
}

func (m *memRecRepo) restore(rows map[string]domain.Recommendation) {
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
}

func sortByPriority(rows []domain.Recommendation) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0; j-- {
			a, b := rows[j-1], rows[j]
			if a.Priority > b.Priority || (a.Priority == b.Priority && a.Similarity >= b.Similarity) {
				break
			}
			rows[j-1], rows[j] = b, a
		}
	}
}

type memTransactor struct {
	repo    *memRecRepo
	commits int
}

func (t *memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	before := t.repo.snapshot()
	if err := fn(ctx); err != nil {
		t.repo.restore(before)
		return err
	}
	t.commits++
	return nil
}

type fakeOutbox struct {
	events []*OutboxEvent
}

func (f *fakeOutbox) Create(_ context.Context, ev *OutboxEvent) (*OutboxEvent, error) {
	ev.ID = int64(len(f.events) + 1)
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkAsProcessed(context.Context, int64) error { return nil }

func (f *fakeOutbox) MarkAsPending(context.Context, int64) error { return nil }

type fakeCache struct {
	entries     map[string]*CachedRecommendations
	generations map[string]int64
	invalidated []string
	sets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries:     make(map[string]*CachedRecommendations),
		generations: make(map[string]int64),
	}
}

func (c *fakeCache) Generation(_ context.Context, shop string) (int64, error) {
	return c.generations[shop], nil
}

func (c *fakeCache) Get(_ context.Context, key string) (*CachedRecommendations, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, entry *CachedRecommendations) error {
	c.sets++
	c.entries[key] = entry
	return nil
}

func (c *fakeCache) InvalidateShop(_ context.Context, shop string) error {
	c.invalidated = append(c.invalidated, shop)
	c.generations[shop]++
	for k := range c.entries {
		if strings.HasPrefix(k, InvalidationPrefix(shop)) {
			delete(c.entries, k)
		}
	}
	return nil
}

type fakeExporter struct {
	snapshots []*domain.SyncSnapshot
}

func (f *fakeExporter) Export(_ context.Context, s *domain.SyncSnapshot) (string, error) {
	f.snapshots = append(f.snapshots, s)
	return "snapshots/" + s.Shop + "/" + s.RunID + ".json", nil
}

type fakeReasoner struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeReasoner) Reason(_ context.Context, p pipeline.Prompt) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "Pairs well.", nil
}
