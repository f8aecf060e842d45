// Package jitter предоставляет утилиты для добавления случайности в интервалы отступления (backoff),
// чтобы предотвратить эффект «буйного стада» (thundering herd) при повторных запросах.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Policy описывает экспоненциальное отступление: Base, 2*Base, 4*Base ... но не больше Max.
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64 // коэффициент джиттера, 0 отключает случайность
}

// NewPolicy создаёт политику отступления.
func NewPolicy(base, max time.Duration, factor float64) Policy {
	return Policy{Base: base, Max: max, Factor: factor}
}

// Delay возвращает задержку перед повтором с номером attempt (нумерация с нуля).
func (p Policy) Delay(attempt int) time.Duration {
	return ExponentialBackoff(p.Base, p.Max, attempt, p.Factor)
}

// Wait ждёт задержку для attempt или отмену контекста.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	return Sleep(ctx, p.Delay(attempt))
}

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 || d <= 0 {
		return d
	}
	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
// base — начальная длительность отступления,
// max — максимальная длительность отступления (до применения джиттера),
// attempt — номер текущей попытки повтора (нумерация с нуля),
// jitterFactor — коэффициент джиттера (например, 0.5 означает +50%).
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	if backoff > max {
		backoff = max
	}
	return Duration(backoff, jitterFactor)
}

// Sleep ждёт d или отмену контекста.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
