package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const defaultEnrichConcurrency = 4

// ReasoningService генерирует текст обоснования по запросу.
type ReasoningService interface {
	Reason(ctx context.Context, prompt Prompt) (string, error)
}

// EnrichResult — счётчики обогащения одного прогона.
type EnrichResult struct {
	Generated int   // обоснования от сервиса
	Templated int   // локальные шаблоны вне квоты
	Fallbacks int   // шаблоны после ошибки сервиса
	Err       error // объединённые ошибки сервиса, nil если их не было
}

// Enricher заполняет поле Reasoning у записей прогона.
type Enricher struct {
	service     ReasoningService
	concurrency int
	logger      logger.Logger
}

// NewEnricher создаёт обогатитель. service == nil выключает обращения к LLM.
func NewEnricher(service ReasoningService, concurrency int, logger logger.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	return &Enricher{
		service:     service,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Enabled сообщает, подключён ли сервис обоснований.
func (en *Enricher) Enabled() bool {
	return en != nil && en.service != nil
}

// Enrich отправляет в сервис первые limit записей с кандидатами (в порядке records),
// остальным проставляет локальный шаблон. Ошибка по одной записи заменяется помеченным шаблоном
// и не прерывает обогащение.
func (en *Enricher) Enrich(ctx context.Context, records []domain.RecommendationRecord, limit int) EnrichResult {
	const op = "Enricher.Enrich"

	var (
		res  EnrichResult
		mu   sync.Mutex
		errs []error
	)

	if limit < 0 {
		limit = 0
	}

	queued := make([]int, 0, limit)
	for i := range records {
		if en.Enabled() && len(queued) < limit && len(records[i].Candidates) > 0 {
			queued = append(queued, i)
			continue
		}
		records[i].Reasoning = TemplateReasoning(&records[i])
		res.Templated++
	}

	if len(queued) == 0 {
		return res
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(en.concurrency)

	for _, idx := range queued {
		rec := &records[idx]
		g.Go(func() error {
			text, err := en.service.Reason(gctx, BuildPrompt(rec))
			text = strings.TrimSpace(text)
			if err == nil && text == "" {
				err = e.ErrEmptyReasoning
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				en.logger.Warnf("%s: reasoning for %s failed, using fallback: %v", op, rec.SourceProductID, err)
				rec.Reasoning = FallbackReasoning(rec)
				res.Fallbacks++
				errs = append(errs, e.Wrap(rec.SourceProductID, err))
				return nil
			}

			rec.Reasoning = text
			res.Generated++
			return nil
		})
	}

	_ = g.Wait()

	res.Err = errors.Join(errs...)
	return res
}
