package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/marcelsud/go-live/internal/user"
)

/* Admin sessions are HS256 JWTs carrying the principal
 * A Manager without a secret never authenticates anyone
 */

var (
	ErrDisabled     = errors.New("admin sessions are not configured")
	ErrTokenMissing = errors.New("token is required")
)

// Claims is the JWT payload.
type Claims struct {
	UserID      string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"name,omitempty"`
	jwtlib.RegisteredClaims
}

// Principal converts the claims into the user put on the request context
func (c Claims) Principal() user.Principal {
	return user.Principal{
		ID:          c.UserID,
		Username:    c.Username,
		DisplayName: c.DisplayName,
	}
}

type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

// Enabled reports whether a signing secret is configured
func (m *Manager) Enabled() bool {
	return len(m.secret) > 0
}

// Sign creates a signed token for p valid for ttl
func (m *Manager) Sign(p user.Principal, ttl time.Duration) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}
	now := m.now()
	claims := Claims{
		UserID:      p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse validates a token string and returns the claims.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}
	tokenStr = NormalizeToken(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenMissing
	}
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwtlib.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" || claims.Username == "" {
		return nil, fmt.Errorf("token has no user")
	}
	return claims, nil
}

// OptionalAuth puts the principal on the context when a valid token is present.
// Requests without one pass through untouched.
func (m *Manager) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := m.Parse(r.Header.Get("Authorization")); err == nil {
			r = r.WithContext(user.WithPrincipal(r.Context(), claims.Principal()))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless OptionalAuth already found a principal
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := user.FromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
