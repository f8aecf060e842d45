package minio

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
)

const (
	contentTypeJSON = "application/json"
	cleanupTimeout  = 30 * time.Second
	deleteAttempts  = 3
)

// SnapshotStore — объектное хранилище выгрузок.
type SnapshotStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// SnapshotExporter выгружает результаты прогонов в MinIO и в фоне удаляет
// выгрузки магазина сверх лимита keep.
type SnapshotExporter struct {
	store       SnapshotStore
	keep        int
	logger      logger.Logger
	shutdownCtx context.Context
	backoff     jitter.Policy
	wg          sync.WaitGroup
}

func NewSnapshotExporter(store SnapshotStore, keep int, logger logger.Logger, shutdownCtx context.Context) *SnapshotExporter {
	return &SnapshotExporter{
		store:       store,
		keep:        keep,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		backoff:     jitter.NewPolicy(time.Second, 4*time.Second, jitter.DefaultJitter),
	}
}

// Export сохраняет выгрузку и возвращает её ключ.
func (s *SnapshotExporter) Export(ctx context.Context, snapshot *domain.SyncSnapshot) (string, error) {
	const op = "SnapshotExporter.Export"

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", e.Wrap(op, err)
	}

	key, err := s.store.Put(ctx, domain.SnapshotKey(snapshot.Shop, snapshot.RunID), data, contentTypeJSON)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	if s.keep > 0 {
		s.wg.Add(1)
		go s.prune(snapshot.Shop)
	}

	return key, nil
}

// prune удаляет самые старые выгрузки магазина с экспоненциальной задержкой и jitter между попытками.
func (s *SnapshotExporter) prune(shop string) {
	defer s.wg.Done()
	const op = "SnapshotExporter.prune"

	ctx, cancel := context.WithTimeout(s.shutdownCtx, cleanupTimeout)
	defer cancel()

	keys, err := s.store.List(ctx, domain.SnapshotShopPrefix(shop))
	if err != nil {
		s.logger.Warnf("%s: list failed for %s: %v", op, shop, err)
		return
	}
	if len(keys) <= s.keep {
		return
	}

	stale := keys[:len(keys)-s.keep]
	s.logger.Debugf("%s: removing %d old snapshots of %s", op, len(stale), shop)

	for _, key := range stale {
		for attempt := 0; attempt < deleteAttempts; attempt++ {
			if err := s.store.Delete(ctx, key); err == nil {
				break
			}

			if attempt < deleteAttempts-1 {
				if err := s.backoff.Wait(ctx, attempt); err != nil {
					s.logger.Warnf("snapshot cleanup interrupted by shutdown, key=%v", key)
					return
				}
			}
		}
	}
}

// WaitForCleanup ожидает завершения фоновых очисток с учётом таймаута завершения приложения.
func (s *SnapshotExporter) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("snapshot cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
