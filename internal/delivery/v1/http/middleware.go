package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const tokenLeeway = 10 * time.Second

// SessionClaims — claims session token встроенного приложения Shopify.
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// SessionAuth проверяет session token (HS256, секрет приложения) и то,
// что токен выдан для магазина из пути запроса. Пустой секрет отключает проверку.
func SessionAuth(secret, apiKey string, log logger.Logger) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithExpirationRequired(),
	}
	if apiKey != "" {
		opts = append(opts, jwt.WithAudience(apiKey))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				WriteError(w, e.ErrUnauthorized)
				return
			}

			claims := &SessionClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return []byte(secret), nil
			}); err != nil {
				log.Warnf("%d %s: %v", http.StatusUnauthorized, e.ErrUnauthorized.Error(), err)
				WriteError(w, errors.Join(e.ErrUnauthorized, err))
				return
			}

			if shop := chi.URLParam(r, "shop"); shop != "" && !sameShop(claims.Dest, shop) {
				log.Warnf("%d: token for %q used on %q", http.StatusForbidden, claims.Dest, shop)
				WriteError(w, e.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// sameShop сравнивает dest ("https://<shop>") с доменом магазина.
func sameShop(dest, shop string) bool {
	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, strings.TrimSpace(shop))
}
