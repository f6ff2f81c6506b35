package security

import (
	"crypto/rand"
	"fmt"
)

// ActivationCodeLength is the number of digits in an activation code.
const ActivationCodeLength = 6

// GenerateActivationCode produces a cryptographically random numeric
// code. Each digit is drawn uniformly, so leading zeros are as likely
// as any other digit.
func GenerateActivationCode() (string, error) {
	var buf [1]byte
	digits := make([]byte, ActivationCodeLength)

	// Rejection sampling per byte keeps the digit distribution uniform.
	for i := 0; i < ActivationCodeLength; {
		if _, err := rand.Read(buf[:1]); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		if buf[0] >= 250 {
			continue
		}
		digits[i] = '0' + buf[0]%10
		i++
	}

	return string(digits), nil
}
