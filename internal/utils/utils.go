package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// AccountNumberLength is the fixed width of an account number.
const AccountNumberLength = 10

var accountNumberSpace = big.NewInt(10_000_000_000)

// GenerateID generates a unique ID with the given prefix, e.g. "tan-<uuid>".
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// GenerateAccountNumber draws a zero-padded 10-digit account number.
// It does not check for collisions.
func GenerateAccountNumber() string {
	num, err := rand.Int(rand.Reader, accountNumberSpace)
	if err != nil {
		panic(fmt.Sprintf("account number entropy unavailable: %v", err))
	}
	return fmt.Sprintf("%0*d", AccountNumberLength, num.Int64())
}

// ValidateAccountNumber reports whether accountNumber is exactly ten digits.
func ValidateAccountNumber(accountNumber string) bool {
	if len(accountNumber) != AccountNumberLength {
		return false
	}
	for _, r := range accountNumber {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
