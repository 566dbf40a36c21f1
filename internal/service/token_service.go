package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"housingreview/internal/config"
	"housingreview/internal/domain"
)

const accessAudience = "access"

// Claims are the JWT claims of an API access token.
type Claims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

// TokenService issues and validates API access tokens.
type TokenService interface {
	Issue(subject string, role domain.Role, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type tokenService struct {
	cfg *config.JWTConfig
	now func() time.Time
}

// NewTokenService creates an HMAC-signed TokenService.
func NewTokenService(cfg *config.JWTConfig) TokenService {
	return &tokenService{cfg: cfg, now: time.Now}
}

// Issue signs a token for subject. A zero ttl uses the configured expiry.
func (s *tokenService) Issue(subject string, role domain.Role, ttl time.Duration) (string, error) {
	if subject == "" || !role.Valid() {
		return "", eris.Wrapf(domain.ErrUnauthorized, "token: invalid subject %q or role %q", subject, role)
	}
	if ttl <= 0 {
		ttl = s.cfg.TokenExpiry
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{accessAudience},
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", eris.Wrap(err, "token: sign")
	}
	return signed, nil
}

func (s *tokenService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(accessAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, eris.Wrap(domain.ErrUnauthorized, err.Error())
	}
	if !token.Valid || !claims.Role.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
