package util

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/gosimple/slug"
	"github.com/skip2/go-qrcode"
)

// Global logger
var LOGGER = slog.New(slog.NewTextHandler(os.Stdout, nil))

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Characters for booking codes: upper case and digits only, with the easily
// confused 0/O and 1/I left out so the code survives being read over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate a random string with length n. The character possible is defined in the alphabet constant
func RandomString(n int) string {
	var sb strings.Builder
	k := len(alphabet)

	for i := 0; i < n; i++ {
		c := alphabet[rand.Intn(k)]
		sb.WriteByte(c)
	}

	return sb.String()
}

// GenerateBookingCode produces the external-facing booking identifier,
// e.g. "LQ-7KF2M9QH". Uniqueness is enforced by the database; callers retry
// with a fresh code on collision.
func GenerateBookingCode() string {
	var sb strings.Builder
	sb.WriteString("LQ-")
	for i := 0; i < 8; i++ {
		sb.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return sb.String()
}

// Generate slug
func GenerateSlug(content string) string {
	return slug.Make(content)
}

// Generate QR
func GenerateQR(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 256)
}

// FormatPrice renders minor currency units for display, e.g. 400000 -> "4000.00"
func FormatPrice(minor int) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
