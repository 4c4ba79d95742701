package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "passbuy/pkg/domain"
	derrors "passbuy/pkg/domain-errors"
)

const (
	testIssuer   = "PassBuy"
	testAudience = "PassBuyClients"
)

func newTestService() *Service {
	return NewService("unit-test-signing-key", testIssuer, testAudience)
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService()
	userID := domain.NewUserID()

	token, err := svc.Issue(userID, "rider@example.com", "Test Rider", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "rider@example.com", claims.Email)
	assert.Equal(t, "Test Rider", claims.Name)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID, "every token should carry a unique jti")
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := newTestService()

	// Expired beyond the clock skew allowance.
	token, err := svc.Issue(domain.NewUserID(), "rider@example.com", "", -2*time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}

func TestValidateToleratesSmallClockSkew(t *testing.T) {
	svc := newTestService()

	// Expired ten seconds ago, inside the leeway window.
	token, err := svc.Issue(domain.NewUserID(), "rider@example.com", "", -10*time.Second)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.NoError(t, err)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, err := NewService("key-one", testIssuer, testAudience).
		Issue(domain.NewUserID(), "rider@example.com", "", time.Hour)
	require.NoError(t, err)

	_, err = NewService("key-two", testIssuer, testAudience).Validate(token)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}

func TestValidateRejectsWrongIssuerOrAudience(t *testing.T) {
	svc := newTestService()

	wrongIssuer, err := NewService("unit-test-signing-key", "SomeoneElse", testAudience).
		Issue(domain.NewUserID(), "rider@example.com", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(wrongIssuer)
	assert.Error(t, err)

	wrongAudience, err := NewService("unit-test-signing-key", testIssuer, "OtherClients").
		Issue(domain.NewUserID(), "rider@example.com", "", time.Hour)
	require.NoError(t, err)
	_, err = svc.Validate(wrongAudience)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestService()
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Validate(token)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	}
}
