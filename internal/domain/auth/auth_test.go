package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", CompanyID: "c1", Role: RoleAccountant}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, UserContext{UserID: "u1", CompanyID: "c1", Role: RoleAccountant}, claims.User())
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken("secret", Claims{UserID: "u1", CompanyID: "c1", Role: RoleOwner}, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("secret", Claims{UserID: "u1", CompanyID: "c1", Role: RoleOwner}, -time.Minute)
	require.NoError(t, err)
	noCompany, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleOwner}, time.Hour)
	require.NoError(t, err)
	badRole, err := GenerateToken("secret", Claims{UserID: "u1", CompanyID: "c1", Role: "Root"}, time.Hour)
	require.NoError(t, err)
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", CompanyID: "c1", Role: RoleOwner})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {secret: "other", token: valid},
		"expired":      {secret: "secret", token: expired},
		"no company":   {secret: "secret", token: noCompany},
		"unknown role": {secret: "secret", token: badRole},
		"alg none":     {secret: "secret", token: unsigned},
		"garbage":      {secret: "secret", token: "not.a.token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.secret, tc.token)
			assert.Error(t, err)
		})
	}
}

func TestRolePermissions(t *testing.T) {
	perms := StaticPermissions{}
	assert.True(t, perms.HasPermission(RoleOwner, PermPayrollPay))
	assert.True(t, perms.HasPermission(RoleAccountant, PermInvoicesWrite))
	assert.False(t, perms.HasPermission(RoleAccountant, PermPayrollPay))
	assert.False(t, perms.HasPermission(RoleAccountant, PermPayrollSettings))
	assert.True(t, perms.HasPermission(RoleViewer, PermBankingRead))
	assert.False(t, perms.HasPermission(RoleViewer, PermBankingWrite))
	assert.False(t, perms.HasPermission("Root", PermInvoicesRead))
}

func TestEveryRolePermissionIsKnown(t *testing.T) {
	known := map[string]bool{}
	for _, p := range DefaultPermissions {
		known[p] = true
	}
	for role, perms := range RolePermissions {
		for _, p := range perms {
			assert.Truef(t, known[p], "role %s has unknown permission %s", role, p)
		}
	}
}
