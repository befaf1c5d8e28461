// Package middleware содержит HTTP middleware бэкенда интернет-магазина.
package middleware

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/ebuy-system/internal/model"
)

type contextKey string

const callerKey contextKey = "caller"

const (
	// sessionHeader — заголовок с ключом анонимной сессии.
	sessionHeader = "X-Demo-Token"
	// guestSessionKey используется, когда заголовок сессии не передан.
	// Весь анонимный трафик без заголовка разделяет одну корзину.
	guestSessionKey = "guest"
)

// Claims описывает полезную нагрузку токена доступа. Срок действия
// не устанавливается и не проверяется.
type Claims struct {
	UserID    int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// AuthMiddleware разрешает идентичность вызывающей стороны по bearer-токену
// и выпускает токены при входе пользователя.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// IssueToken выпускает подписанный токен с данными пользователя.
func (a *AuthMiddleware) IssueToken(u *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})

	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Optional разрешает идентичность вызывающей стороны, не требуя токена.
// Некорректный или отсутствующий токен приводит к анонимной идентичности,
// а не к ошибке.
func (a *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := a.resolve(r)
		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require требует корректный bearer-токен и отвечает 401 при его отсутствии.
func (a *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := a.resolve(r)
		if !caller.Authenticated {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthMiddleware) resolve(r *http.Request) model.Caller {
	caller := model.Caller{
		SessionKey: r.Header.Get(sessionHeader),
	}
	if caller.SessionKey == "" {
		caller.SessionKey = guestSessionKey
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return caller
	}

	claims, err := a.parseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return caller
	}

	caller.Authenticated = true
	caller.UserID = claims.UserID
	caller.Email = claims.Email
	caller.FirstName = claims.FirstName
	caller.LastName = claims.LastName

	return caller
}

func (a *AuthMiddleware) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// CallerFromContext извлекает идентичность вызывающей стороны из контекста запроса.
func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(model.Caller)
	return caller, ok
}
