// Package embedding превращает текст товара в нормированный вектор фиксированной размерности.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/DRSN-tech/cartwhisper/pkg/vecmath"
)

// Model — бэкенд модели эмбеддингов (ONNX, ML-сервис, Ollama).
type Model interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Close() error
}

// Loader создаёт модель. Вызывается не более одного раза за жизнь Generator.
type Loader func(ctx context.Context) (Model, error)

// Generator лениво инициализирует модель и нормирует её выход.
type Generator struct {
	mu      sync.RWMutex
	load    Loader
	model   Model
	initErr error
	closed  bool
	dim     int
	logger  logger.Logger
}

func NewGenerator(load Loader, dim int, logger logger.Logger) *Generator {
	return &Generator{
		load:   load,
		dim:    dim,
		logger: logger,
	}
}

// Init загружает модель. Повторные и параллельные вызовы безопасны:
// модель создаётся один раз, ошибка загрузки запоминается.
// Отмена или таймаут контекста вызывающего не запоминаются, следующий вызов повторит загрузку.
func (g *Generator) Init(ctx context.Context) error {
	const op = "Generator.Init"

	g.mu.RLock()
	ready := g.model != nil
	g.mu.RUnlock()
	if ready {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.closed:
		return e.Wrap(op, fmt.Errorf("%w: generator closed", e.ErrModelUnavailable))
	case g.model != nil:
		return nil
	case g.initErr != nil:
		return g.initErr
	}

	model, err := g.load(ctx)
	if err == nil && model == nil {
		err = errors.New("loader returned nil model")
	}
	if err != nil {
		wrapped := e.Wrap(op, fmt.Errorf("%w: %v", e.ErrModelUnavailable, err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			g.logger.Warnf("embedding model init interrupted: %v", err)
			return wrapped
		}
		g.initErr = wrapped
		g.logger.Errorf(err, "embedding model init failed")
		return g.initErr
	}

	g.model = model
	g.logger.Infof("embedding model initialized, dimensions=%d", g.dim)
	return nil
}

// Embed возвращает L2-нормированный вектор текста.
// Модель используется под read-lock, поэтому Close дожидается текущих вызовов.
func (g *Generator) Embed(ctx context.Context, text string) ([]float64, error) {
	const op = "Generator.Embed"

	if err := g.Init(ctx); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.model == nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: generator closed", e.ErrModelUnavailable))
	}

	vec, err := g.model.Embed(ctx, text)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrEmbeddingFailed, err))
	}
	if len(vec) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyVector)
	}
	if g.dim > 0 && len(vec) != g.dim {
		return nil, e.Wrap(op, fmt.Errorf("%w: got %d, want %d", e.ErrDimensionMismatch, len(vec), g.dim))
	}

	return vecmath.Normalize(vec), nil
}

// Dimensions возвращает ожидаемую размерность векторов.
func (g *Generator) Dimensions() int {
	return g.dim
}

// Close освобождает модель, если она была загружена. После Close генератор не загружает модель заново.
func (g *Generator) Close(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	if g.model == nil {
		return nil
	}
	err := g.model.Close()
	g.model = nil
	return err
}
