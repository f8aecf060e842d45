package domain

import "time"

// Shop описывает магазин, установивший приложение.
type Shop struct {
	Domain      string // example.myshopify.com
	AccessToken string
	Plan        PlanTier
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func NewShop(domain, accessToken string, plan PlanTier) *Shop {
	return &Shop{
		Domain:      domain,
		AccessToken: accessToken,
		Plan:        plan,
	}
}
