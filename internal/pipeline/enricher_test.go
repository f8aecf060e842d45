package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeReasoner struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]bool
	reply  string
	active int32
	peak   int32
}

func (f *fakeReasoner) Reason(_ context.Context, p Prompt) (string, error) {
	cur := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, p.User)
	f.mu.Unlock()

	for key := range f.failOn {
		if strings.Contains(p.User, key) {
			return "", errors.New("llm unavailable")
		}
	}
	return f.reply, nil
}

func record(id string, withCandidate bool) domain.RecommendationRecord {
	src := domain.NewProduct(id, "Title "+id, "Main", "", decimal.NewFromInt(100))
	var cands []domain.Candidate
	if withCandidate {
		c := domain.NewProduct(id+"-c", "Cand "+id, "Other", "", decimal.NewFromInt(10))
		cands = append(cands, domain.NewCandidate(c, 0.9))
	}
	return domain.NewRecommendationRecord("shop.myshopify.com", src, cands)
}

func TestEnrichOnlyFirstK(t *testing.T) {
	svc := &fakeReasoner{reply: "  Great match.  "}
	en := NewEnricher(svc, 2, logger.NewNop())

	records := []domain.RecommendationRecord{record("p1", true), record("p2", true), record("p3", true)}
	res := en.Enrich(context.Background(), records, 2)

	if res.Generated != 2 || res.Templated != 1 || res.Fallbacks != 0 || res.Err != nil {
		t.Fatalf("result = %+v", res)
	}
	if records[0].Reasoning != "Great match." || records[1].Reasoning != "Great match." {
		t.Errorf("llm reasoning not trimmed: %q %q", records[0].Reasoning, records[1].Reasoning)
	}
	if records[2].Reasoning == "" || strings.HasPrefix(records[2].Reasoning, FallbackPrefix) {
		t.Errorf("record past the limit must get plain template: %q", records[2].Reasoning)
	}
	if len(svc.calls) != 2 {
		t.Errorf("calls = %d", len(svc.calls))
	}
}

func TestEnrichFailureUsesMarkedFallback(t *testing.T) {
	svc := &fakeReasoner{reply: "ok", failOn: map[string]bool{"Title p2": true}}
	en := NewEnricher(svc, 4, logger.NewNop())

	records := []domain.RecommendationRecord{record("p1", true), record("p2", true)}
	res := en.Enrich(context.Background(), records, 10)

	if res.Generated != 1 || res.Fallbacks != 1 || res.Err == nil {
		t.Fatalf("result = %+v", res)
	}
	if !strings.HasPrefix(records[1].Reasoning, FallbackPrefix) || len(records[1].Reasoning) <= len(FallbackPrefix) {
		t.Errorf("fallback reasoning = %q", records[1].Reasoning)
	}
}

func TestEnrichEmptyReplyIsFailure(t *testing.T) {
	en := NewEnricher(&fakeReasoner{reply: "   "}, 1, logger.NewNop())

	records := []domain.RecommendationRecord{record("p1", true)}
	res := en.Enrich(context.Background(), records, 1)

	if res.Fallbacks != 1 || records[0].Reasoning == "" {
		t.Fatalf("result = %+v reasoning = %q", res, records[0].Reasoning)
	}
}

func TestEnrichDisabled(t *testing.T) {
	en := NewEnricher(nil, 1, logger.NewNop())

	records := []domain.RecommendationRecord{record("p1", true), record("p2", false)}
	res := en.Enrich(context.Background(), records, 10)

	if en.Enabled() || res.Generated != 0 || res.Templated != 2 {
		t.Fatalf("result = %+v", res)
	}
	for _, r := range records {
		if r.Reasoning == "" {
			t.Errorf("%s: empty reasoning", r.SourceProductID)
		}
	}
}

func TestEnrichSkipsRecordsWithoutCandidates(t *testing.T) {
	svc := &fakeReasoner{reply: "ok"}
	en := NewEnricher(svc, 1, logger.NewNop())

	records := []domain.RecommendationRecord{record("empty", false), record("p1", true)}
	res := en.Enrich(context.Background(), records, 1)

	if res.Generated != 1 || len(svc.calls) != 1 || !strings.Contains(svc.calls[0], "Title p1") {
		t.Fatalf("result = %+v calls = %v", res, svc.calls)
	}
}

func TestEnrichBoundedConcurrency(t *testing.T) {
	svc := &fakeReasoner{reply: "ok"}
	en := NewEnricher(svc, 2, logger.NewNop())

	var records []domain.RecommendationRecord
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		records = append(records, record(id, true))
	}
	en.Enrich(context.Background(), records, len(records))

	if p := atomic.LoadInt32(&svc.peak); p > 2 {
		t.Fatalf("peak concurrency = %d", p)
	}
}

func TestTemplateReasoningNeverEmpty(t *testing.T) {
	rec := domain.RecommendationRecord{}
	if TemplateReasoning(&rec) == "" {
		t.Fatalf("empty template for empty record")
	}

	full := record("p1", true)
	got := TemplateReasoning(&full)
	if !strings.Contains(got, "Title p1") || !strings.Contains(got, "Cand p1") || !strings.Contains(got, "Other") {
		t.Fatalf("template = %q", got)
	}
}

func TestBuildPromptBounded(t *testing.T) {
	rec := record("p1", true)
	rec.SourceTitle = strings.Repeat("x", 500)
	for i := 0; i < 8; i++ {
		rec.Candidates = append(rec.Candidates, rec.Candidates[0])
	}

	p := BuildPrompt(&rec)
	if strings.Count(p.User, "\n") > domain.MaxCandidates+1 {
		t.Errorf("too many candidate lines:\n%s", p.User)
	}
	if strings.Contains(p.User, strings.Repeat("x", maxPromptTitle+1)) {
		t.Errorf("title not clipped")
	}
	if p.System == "" {
		t.Errorf("empty system prompt")
	}
}
