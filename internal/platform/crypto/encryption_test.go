package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealRoundTrip(t *testing.T) {
	svc, err := New("a-long-enough-development-secret")
	require.NoError(t, err)
	require.True(t, svc.Configured())

	sealed, err := svc.SealString("000123456789")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "000123456789")

	plain, err := svc.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "000123456789", plain)
}

func TestSealUsesFreshNonce(t *testing.T) {
	svc, err := New("a-long-enough-development-secret")
	require.NoError(t, err)
	first, err := svc.SealString("same")
	require.NoError(t, err)
	second, err := svc.SealString("same")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestWrongKeyFailsToOpen(t *testing.T) {
	a, err := New("first-secret-value-0001")
	require.NoError(t, err)
	b, err := New("second-secret-value-002")
	require.NoError(t, err)
	sealed, err := a.SealString("secret")
	require.NoError(t, err)
	_, err = b.OpenString(sealed)
	assert.Error(t, err)
}

func TestUnconfiguredIsPassThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())
	sealed, err := svc.SealString("plain")
	require.NoError(t, err)
	plain, err := svc.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "plain", plain)
}

func TestShortSecretRejected(t *testing.T) {
	_, err := New("short")
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "********6789", Mask("000123456789"))
	assert.Equal(t, "***", Mask("123"))
	assert.Equal(t, "", Mask(""))
}
