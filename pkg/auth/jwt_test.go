package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsmedika/consent-api/internal/model"
)

func testUser() *model.User {
	return &model.User{
		Username:    "budi",
		Role:        model.RoleAdminPOC,
		Permissions: model.PermissionsForRole(model.RoleAdminPOC),
	}
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 24*time.Hour)

	token, err := svc.GenerateToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "budi", claims.Username)
	assert.Equal(t, model.RoleAdminPOC, claims.Role)
	assert.Equal(t, model.PermissionsForRole(model.RoleAdminPOC), claims.Permissions)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewJWTService("secret-one", 24*time.Hour)
	verifier := NewJWTService("secret-two", 24*time.Hour)

	token, err := issuer.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := verifier.ValidateToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsTamperedSignature(t *testing.T) {
	svc := NewJWTService("test-secret", 24*time.Hour)

	token, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	// Flip a character in the signature segment
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	claims, err := svc.ValidateToken(tampered)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	token, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 24*time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		claims, err := svc.ValidateToken(input)
		assert.Nil(t, claims, "input %q", input)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestPermissionSnapshotIsAuthoritative(t *testing.T) {
	svc := NewJWTService("test-secret", 24*time.Hour)

	user := testUser()
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	// Mutating the user after issuance must not affect the token
	user.Permissions = model.PermissionSet{}

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.Permissions.Has(model.CapAddPatient))
}
