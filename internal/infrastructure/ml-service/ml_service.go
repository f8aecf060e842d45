package ml_service

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/internal/infrastructure/embedding"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// EmbedTextMethod — полный gRPC-метод ML-сервиса. Запрос и ответ передаются как google.protobuf.Struct:
// {"text": "...", "model": "..."} -> {"vector": [...], "model_version": "..."}.
const EmbedTextMethod = "/ml.v1.EmbeddingService/EmbedText"

// MLService клиент для взаимодействия с внешним ML-сервисом
type MLService struct {
	conn       grpc.ClientConnInterface
	model      string
	timeout    time.Duration
	maxRetries int
	backoff    jitter.Policy
	logger     logger.Logger
}

func NewMLService(conn grpc.ClientConnInterface, model string, timeout time.Duration, maxRetries int, logger logger.Logger) *MLService {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &MLService{
		conn:       conn,
		model:      model,
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    jitter.NewPolicy(200*time.Millisecond, 2*time.Second, jitter.DefaultJitter),
		logger:     logger,
	}
}

// Loader открывает соединение с ML-сервисом при первом обращении к генератору.
func Loader(c *cfg.MLServiceCfg, logger logger.Logger) embedding.Loader {
	return func(_ context.Context) (embedding.Model, error) {
		conn, err := grpc.NewClient(c.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, e.Wrap("ml_service.Loader", err)
		}
		return &closingService{
			MLService: NewMLService(conn, c.Model, c.Timeout, c.MaxRetries, logger),
			closeFn:   conn.Close,
		}, nil
	}
}

// Embed запрашивает вектор текста. Повторяет запрос не более maxRetries раз.
func (m *MLService) Embed(ctx context.Context, text string) ([]float64, error) {
	const op = "MLService.Embed"

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		vector, err := m.embedOnce(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if attempt == m.maxRetries-1 {
			break
		}

		sleepTime := m.backoff.Delay(attempt)
		m.logger.Warnf("embedding request failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		if err := jitter.Sleep(ctx, sleepTime); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", m.maxRetries, lastErr))
}

func (m *MLService) embedOnce(ctx context.Context, text string) ([]float64, error) {
	const op = "MLService.embedOnce"

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	req, err := structpb.NewStruct(map[string]any{
		"text":  text,
		"model": m.model,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := &structpb.Struct{}
	if err := m.conn.Invoke(ctx, EmbedTextMethod, req, res); err != nil {
		return nil, e.Wrap(op, err)
	}

	values := res.GetFields()["vector"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyVector)
	}

	vector := make([]float64, len(values))
	for i, v := range values {
		vector[i] = v.GetNumberValue()
	}

	return vector, nil
}

func (m *MLService) Close() error {
	return nil
}

type closingService struct {
	*MLService
	closeFn func() error
}

func (c *closingService) Close() error {
	return c.closeFn()
}
