// utils/otp.go
package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// GenerateOTP returns a fixed-width numeric one-time code drawn uniformly
// from crypto/rand. Leading zeros are preserved.
func GenerateOTP(length int) (string, error) {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}
