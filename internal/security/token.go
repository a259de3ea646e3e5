package security

import (
	"context"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const TokenTypeAccess TokenType = "access"

const (
	defaultIssuer    = "rentdesk"
	accessAudience   = "rentdesk-api"
	DefaultAccessTTL = time.Hour
)

// ActorClaims carries the caller identity. Subject holds the user ID.
type ActorClaims struct {
	Role domain.Role `json:"role"`
	Type TokenType   `json:"type"`
	jwt.RegisteredClaims
}

func (c *ActorClaims) Actor() domain.Actor {
	return domain.Actor{UserID: c.Subject, Role: c.Role}
}

type TokenManager interface {
	GenerateAccessToken(actor domain.Actor) (string, error)
	ValidateToken(tokenString string) (*ActorClaims, error)
}

type tokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) TokenManager {
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &tokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    DefaultAccessTTL,
		now:    time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(actor domain.Actor) (string, error) {
	if actor.UserID == "" {
		return "", errors.New("actor user id is required")
	}
	switch actor.Role {
	case domain.RoleCustomer, domain.RoleVendor, domain.RoleAdmin:
	default:
		return "", errors.New("unknown role: " + string(actor.Role))
	}

	now := m.now()
	claims := ActorClaims{
		Role: actor.Role,
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*ActorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(accessAudience),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

type actorKey struct{}

// WithActor stores the authenticated actor on the request context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by the auth middleware.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
