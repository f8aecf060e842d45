package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	outboxChannel     = "outbox_pending"
	defaultBatchSize  = 10
	defaultPollPeriod = 30 * time.Second
	sendAttempts      = 3
)

// OutboxWorker пересылает события outbox в Kafka. Будится по LISTEN/NOTIFY, а периодический
// опрос подбирает события, уведомления о которых были потеряны.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	dbConnStr string // пустая строка: только периодический опрос

	batchSize  int
	pollPeriod time.Duration
	backoff    jitter.Policy

	wake chan struct{}
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:       repo,
		logger:     logger,
		producer:   producer,
		dbConnStr:  dbConnStr,
		batchSize:  defaultBatchSize,
		pollPeriod: defaultPollPeriod,
		backoff:    jitter.NewPolicy(500*time.Millisecond, 5*time.Second, jitter.DefaultJitter),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	if w.dbConnStr == "" {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

// Stop останавливает воркер и ждёт завершения горутин.
func (w *OutboxWorker) Stop(_ context.Context) error {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
	return nil
}

func (w *OutboxWorker) run(ctx context.Context) {
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-w.wake:
			w.drain(ctx)
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// notify будит цикл обработки, не блокируясь, если он уже разбужен.
func (w *OutboxWorker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for attempt := 0; ; attempt++ {
		err := w.listen(ctx)
		if ctx.Err() != nil {
			return
		}

		delay := w.backoff.Delay(attempt)
		w.logger.Warnf("outbox listener lost connection: %v. Reconnecting in %v", err, delay)
		if jitter.Sleep(ctx, delay) != nil {
			return
		}
	}
}

// listen держит LISTEN-соединение до ошибки или отмены контекста.
func (w *OutboxWorker) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, w.dbConnStr)
	if err != nil {
		return e.Wrap("failed to connect for LISTEN", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+outboxChannel); err != nil {
		return e.Wrap("failed to LISTEN", err)
	}
	w.logger.Infof("Subscribed to '%s' channel", outboxChannel)

	for {
		notif, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if notif != nil && notif.Channel == outboxChannel {
			w.logger.Debugf("Received outbox notification")
			w.notify()
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("outbox batch failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

// processBatch возвращает true, если пачка была полной и стоит забрать следующую.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.batchSize)
	if err != nil {
		return false, err
	}

	failed := 0
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			failed++
			w.logger.Warnf("outbox event %s not delivered: %v", event.EventID, err)
			if err := w.repo.MarkAsPending(ctx, event.ID); err != nil {
				w.logger.Warnf("return to queue failed: %v", err)
			}
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	// при сбоях не крутимся вхолостую, событие подберёт следующий опрос
	return failed == 0 && len(events) == w.batchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	req := usecase.NewWriteRawMessageReq(event.AggregateID, event.EventType, event.Payload)

	var err error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if err = w.producer.WriteRawMessage(ctx, req); err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return e.Wrap("Permanent Kafka failure", err)
		}
		if attempt < sendAttempts-1 {
			if serr := w.backoff.Wait(ctx, attempt); serr != nil {
				return serr
			}
		}
	}

	return e.Wrap("Temporary Kafka failure, will retry", err)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"leader not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
