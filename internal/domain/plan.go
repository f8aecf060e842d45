package domain

import (
	"fmt"
	"strings"
)

// PlanTier — тарифный план магазина.
type PlanTier int

const (
	PlanFree PlanTier = iota
	PlanStarter
	PlanPro
	PlanEnterprise
)

// PlanConfig — неизменяемые лимиты тарифа.
type PlanConfig struct {
	MaxProducts               int // 0: без ограничения
	RecommendationsPerProduct int
	AIReasoning               bool
	ReasoningLimit            int // сколько товаров за прогон обогащается LLM
}

var planConfigs = map[PlanTier]PlanConfig{
	PlanFree: {
		MaxProducts:               50,
		RecommendationsPerProduct: 3,
		AIReasoning:               false,
		ReasoningLimit:            0,
	},
	PlanStarter: {
		MaxProducts:               500,
		RecommendationsPerProduct: MaxCandidates,
		AIReasoning:               true,
		ReasoningLimit:            10,
	},
	PlanPro: {
		MaxProducts:               5000,
		RecommendationsPerProduct: MaxCandidates,
		AIReasoning:               true,
		ReasoningLimit:            50,
	},
	PlanEnterprise: {
		MaxProducts:               0,
		RecommendationsPerProduct: MaxCandidates,
		AIReasoning:               true,
		ReasoningLimit:            200,
	},
}

// Config возвращает лимиты тарифа. Неизвестный тариф трактуется как бесплатный.
func (p PlanTier) Config() PlanConfig {
	if cfg, ok := planConfigs[p]; ok {
		return cfg
	}
	return planConfigs[PlanFree]
}

func (p PlanTier) String() string {
	switch p {
	case PlanFree:
		return "free"
	case PlanStarter:
		return "starter"
	case PlanPro:
		return "pro"
	case PlanEnterprise:
		return "enterprise"
	default:
		return fmt.Sprintf("plan(%d)", int(p))
	}
}

// ParsePlanTier разбирает имя тарифа без учёта регистра.
func ParsePlanTier(s string) (PlanTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "free":
		return PlanFree, nil
	case "starter", "basic":
		return PlanStarter, nil
	case "pro", "growth":
		return PlanPro, nil
	case "enterprise", "unlimited":
		return PlanEnterprise, nil
	default:
		return PlanFree, fmt.Errorf("unknown plan tier %q", s)
	}
}
