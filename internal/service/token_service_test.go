package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/config"
	"housingreview/internal/domain"
	"housingreview/internal/service"
)

var jwtCfg = &config.JWTConfig{Secret: "test-secret", TokenExpiry: time.Hour, Issuer: "housingreview"}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := service.NewTokenService(jwtCfg)

	token, err := svc.Issue("officer-7", domain.RoleOfficer, 0)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "officer-7", claims.Subject)
	assert.Equal(t, domain.RoleOfficer, claims.Role)
	assert.Equal(t, "housingreview", claims.Issuer)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := service.NewTokenService(jwtCfg)

	other := service.NewTokenService(&config.JWTConfig{Secret: "other", TokenExpiry: time.Hour, Issuer: "housingreview"})
	foreign, err := other.Issue("x", domain.RoleAdmin, 0)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	wrongIssuer := service.NewTokenService(&config.JWTConfig{Secret: "test-secret", TokenExpiry: time.Hour, Issuer: "elsewhere"})
	token, err := wrongIssuer.Issue("x", domain.RoleAdmin, 0)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = svc.ValidateToken("not.a.token")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = svc.Issue("x", domain.Role("root"), 0)
	assert.Error(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	svc := service.NewTokenService(jwtCfg)
	token, err := svc.Issue("x", domain.RoleViewer, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
