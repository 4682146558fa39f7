package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, expiresIn, err := svc.GenerateSSEToken("emp-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	id, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", id)
}

func TestSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, _, err := svc.GenerateAccessToken("emp-1", employee.RoleHOD, time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestAccessToken_Claims(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, _, err := svc.GenerateAccessToken("emp-1", employee.RoleAdmin, time.Hour)
	require.NoError(t, err)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims["employee_id"])
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, TokenTypeAccess, claims["type"])
}

func TestSSEToken_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("one").GenerateSSEToken("emp-1")
	require.NoError(t, err)

	_, err = NewJWTService("two").ValidateSSEToken(token)
	assert.Error(t, err)
}
