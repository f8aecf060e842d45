package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
)

type fakeOutboxRepo struct {
	mu        sync.Mutex
	pending   []*usecase.OutboxEvent
	processed []int64
	requeued  []int64
}

func (f *fakeOutboxRepo) Create(_ context.Context, ev *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, ev)
	return ev, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := min(limit, len(f.pending))
	out := f.pending[:n]
	f.pending = f.pending[n:]
	return out, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) MarkAsPending(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeued = append(f.requeued, id)
	return nil
}

type fakeProducer struct {
	mu   sync.Mutex
	sent []*usecase.WriteRawMessageReq
	errs []error // ошибки для первых вызовов
}

func (f *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	f.sent = append(f.sent, req)
	return nil
}

func newTestWorker(repo *fakeOutboxRepo, prod *fakeProducer) *OutboxWorker {
	w := NewOutboxWorker(repo, logger.NewNop(), prod, "")
	w.backoff = jitter.NewPolicy(time.Millisecond, time.Millisecond, 0)
	w.batchSize = 2
	return w
}

func events(n int) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &usecase.OutboxEvent{
			ID:          int64(i),
			EventID:     "ev",
			EventType:   usecase.EventRecommendationsSynced,
			AggregateID: "shop.myshopify.com",
			Payload:     []byte(`{}`),
			Status:      usecase.Processing,
		})
	}
	return out
}

func TestDrainDeliversAllBatches(t *testing.T) {
	repo := &fakeOutboxRepo{pending: events(5)}
	prod := &fakeProducer{}
	w := newTestWorker(repo, prod)

	w.drain(context.Background())

	if len(prod.sent) != 5 || len(repo.processed) != 5 {
		t.Fatalf("sent=%d processed=%d", len(prod.sent), len(repo.processed))
	}
	if prod.sent[0].Key != "shop.myshopify.com" || prod.sent[0].EventType != usecase.EventRecommendationsSynced {
		t.Errorf("message = %+v", prod.sent[0])
	}
}

func TestRetryableErrorIsRetried(t *testing.T) {
	repo := &fakeOutboxRepo{pending: events(1)}
	prod := &fakeProducer{errs: []error{errors.New("dial tcp: connection refused")}}
	w := newTestWorker(repo, prod)

	w.drain(context.Background())

	if len(prod.sent) != 1 || len(repo.processed) != 1 || len(repo.requeued) != 0 {
		t.Fatalf("sent=%d processed=%d requeued=%d", len(prod.sent), len(repo.processed), len(repo.requeued))
	}
}

func TestPermanentErrorReturnsEventToQueue(t *testing.T) {
	repo := &fakeOutboxRepo{pending: events(1)}
	prod := &fakeProducer{errs: []error{errors.New("message too large")}}
	w := newTestWorker(repo, prod)

	w.drain(context.Background())

	if len(repo.processed) != 0 || len(repo.requeued) != 1 {
		t.Fatalf("processed=%d requeued=%d", len(repo.processed), len(repo.requeued))
	}
}

func TestWorkerWakesOnNotify(t *testing.T) {
	repo := &fakeOutboxRepo{}
	prod := &fakeProducer{}
	w := newTestWorker(repo, prod)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	repo.Create(ctx, events(1)[0])
	w.notify()

	deadline := time.Now().Add(2 * time.Second)
	for {
		prod.mu.Lock()
		n := len(prod.sent)
		prod.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("event not delivered after notify")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	if !isRetryableError(context.DeadlineExceeded) {
		t.Errorf("deadline exceeded must be retryable")
	}
	if isRetryableError(errors.New("invalid message")) {
		t.Errorf("invalid message must not be retryable")
	}
	if isRetryableError(nil) {
		t.Errorf("nil is not retryable")
	}
}
