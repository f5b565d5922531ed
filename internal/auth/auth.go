package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"setquiz/internal/domain"
)

// RoleAdmin may add questions to the bank.
const RoleAdmin = "admin"

const issuer = "setquiz"

type Service struct{ hmac []byte }

func NewService(secret string) *Service { return &Service{hmac: []byte(secret)} }

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs an HS256 token for sub with the given role.
func (s *Service) Issue(sub, role string, ttl time.Duration) (string, error) {
	if len(s.hmac) == 0 {
		return "", errors.New("auth secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	if len(s.hmac) == 0 {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// Authorize checks the bearer token on r for role.
func (s *Service) Authorize(r *http.Request, role string) (*Claims, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil, fmt.Errorf("%w: missing bearer", domain.ErrUnauthorized)
	}
	claims, err := s.Parse(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, domain.ErrForbidden
	}
	return claims, nil
}

// RequireRole rejects requests without a valid bearer token for role.
func (s *Service) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := s.Authorize(r, role)
			switch {
			case errors.Is(err, domain.ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			case err != nil:
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
