package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "passbuy/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	key, salt, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.Len(t, salt, 16)

	ok, err := Verify("correct horse battery staple", key, salt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong password", key, salt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashUsesFreshSalt(t *testing.T) {
	key1, salt1, err := Hash("same password")
	require.NoError(t, err)
	key2, salt2, err := Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, key1, key2)
}

func TestVerifyRejectsMalformedSalt(t *testing.T) {
	key, _, err := Hash("whatever")
	require.NoError(t, err)

	_, err = Verify("whatever", key, []byte("short"))
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
}
