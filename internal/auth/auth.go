package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const accessTTL = 12 * time.Hour

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service authenticates against the user registry and keeps the persisted
// current-session slot in sync with login/logout.
type Service struct {
	users   *registry.UserRegistry
	session *store.Slot[*models.Session]
	secret  []byte
}

func NewService(ctx context.Context, kv store.KV, bus *events.Bus, users *registry.UserRegistry, secret []byte) *Service {
	return &Service{
		users: users,
		session: store.NewSlot(ctx, kv, bus, store.KeySession, func() *models.Session {
			return nil
		}),
		secret: secret,
	}
}

func (s *Service) Login(ctx context.Context, username, credential string) (*models.User, string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.users.Authenticate(username, credential)
	if err != nil {
		l.Warn("login failed", "status", 401)
		return nil, "", err
	}

	now := time.Now().UTC()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.session.Set(ctx, &models.Session{
		UserID:     user.ID,
		Username:   user.Username,
		LoggedInAt: now,
	}); err != nil {
		l.Warn("session slot write failed", "error", err)
	}

	l.Info("login ok", "role", user.Role)
	return user, token, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.session.Set(ctx, nil)
}

func (s *Service) Session() *models.Session {
	return s.session.Get()
}

func (s *Service) ParseToken(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
