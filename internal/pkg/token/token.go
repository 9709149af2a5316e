package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// OpaqueBytes is the amount of randomness behind an emailed link token.
const OpaqueBytes = 20

// NewOpaque returns n cryptographically random bytes, hex encoded (2n characters).
func NewOpaque(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewNumericCode returns a uniformly random code of exactly digits decimal digits.
func NewNumericCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
