package security

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns a bcrypt hash of a client secret.
// A cost of zero or less uses bcrypt.DefaultCost.
func HashSecret(secret string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash client secret: %w", err)
	}
	return string(hash), nil
}

// CompareSecret reports whether supplied matches the stored secret.
// When hash is set it is checked with bcrypt and plain is ignored;
// otherwise plain is compared in constant time.
func CompareSecret(supplied, plain, hash string) bool {
	if hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(plain)) == 1
}

// ValidateHashCost checks that a positive cost is accepted by bcrypt.
// Zero means hashing is disabled and is always valid.
func ValidateHashCost(cost int) error {
	if cost == 0 {
		return nil
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("secret hash cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
