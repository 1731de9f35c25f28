package domain

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// CodeLength is the number of digits in a confirmation code.
const CodeLength = 6

// NewConfirmationCode generates a random 6-digit code from crypto/rand. Codes
// only need to be unique among currently-active entries, so the caller checks
// the live index and re-rolls on collision.
func NewConfirmationCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("confirmation code entropy: %w", err)
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}
