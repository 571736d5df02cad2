package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomString(t *testing.T) {
	str := RandomString(32)
	require.Len(t, str, 32)

	for _, c := range str {
		require.Contains(t, alphabet, string(c))
	}
}

func TestGenerateBookingCode(t *testing.T) {
	code := GenerateBookingCode()
	require.Len(t, code, 11)
	require.True(t, strings.HasPrefix(code, "LQ-"))

	// No ambiguous characters: codes get read out over the phone
	for _, c := range code[3:] {
		require.Contains(t, codeAlphabet, string(c))
		require.NotContains(t, "0O1I", string(c))
	}
}

func TestGenerateSlug(t *testing.T) {
	require.Equal(t, "the-vault", GenerateSlug("The Vault"))
	require.Equal(t, "quest-13", GenerateSlug("  Quest #13!  "))
}

func TestGenerateQR(t *testing.T) {
	png, err := GenerateQR("LQ-7KF2M9QH")
	require.NoError(t, err)

	// PNG magic bytes
	require.Greater(t, len(png), 8)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "40.00", FormatPrice(4000))
	require.Equal(t, "0.05", FormatPrice(5))
	require.Equal(t, "0.00", FormatPrice(0))
	require.Equal(t, "-12.50", FormatPrice(-1250))
}
