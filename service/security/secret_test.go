package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uxpromo/limboquest-api/util"
)

func TestBcrypt(t *testing.T) {
	password := util.RandomString(16)

	hashed, err := BcryptHash(password)
	require.NoError(t, err)
	require.NotEqual(t, password, hashed)

	require.True(t, BcryptCompare(hashed, password))
	require.False(t, BcryptCompare(hashed, util.RandomString(16)))
}
