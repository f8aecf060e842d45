package minio

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	order   []string
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.objects[key] = data
	m.order = append(m.order, key)
	return key, nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, k := range m.order {
		if _, ok := m.objects[k]; ok && strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func snapshot(shop, run string) *domain.SyncSnapshot {
	return domain.NewSyncSnapshot(run, shop, "pro", time.Now(), nil, domain.SyncStats{ProductsProcessed: 3})
}

func TestExportWritesJSON(t *testing.T) {
	store := newMemStore()
	exp := NewSnapshotExporter(store, 0, logger.NewNop(), context.Background())

	key, err := exp.Export(context.Background(), snapshot("a.myshopify.com", "run1"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if key != "snapshots/a.myshopify.com/run1.json" {
		t.Errorf("key = %s", key)
	}

	var got domain.SyncSnapshot
	if err := json.Unmarshal(store.objects[key], &got); err != nil {
		t.Fatalf("stored snapshot is not JSON: %v", err)
	}
	if got.RunID != "run1" || got.Stats["products_processed"] != 3 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestExportPrunesOldSnapshots(t *testing.T) {
	store := newMemStore()
	exp := NewSnapshotExporter(store, 2, logger.NewNop(), context.Background())
	exp.backoff = jitter.NewPolicy(time.Millisecond, time.Millisecond, 0)

	for _, run := range []string{"r1", "r2", "r3"} {
		if _, err := exp.Export(context.Background(), snapshot("a.myshopify.com", run)); err != nil {
			t.Fatalf("Export %s: %v", run, err)
		}
		if err := exp.WaitForCleanup(context.Background()); err != nil {
			t.Fatalf("WaitForCleanup: %v", err)
		}
	}
	if _, err := exp.Export(context.Background(), snapshot("b.myshopify.com", "r1")); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := exp.WaitForCleanup(context.Background()); err != nil {
		t.Fatalf("WaitForCleanup: %v", err)
	}

	want := []string{
		"snapshots/a.myshopify.com/r2.json",
		"snapshots/a.myshopify.com/r3.json",
		"snapshots/b.myshopify.com/r1.json",
	}
	got := store.keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("objects = %v, want %v", got, want)
	}
}

func TestExportStoreFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("bucket missing")

	if _, err := NewSnapshotExporter(store, 1, logger.NewNop(), context.Background()).
		Export(context.Background(), snapshot("a.myshopify.com", "r1")); err == nil {
		t.Fatalf("expected error")
	}
}
