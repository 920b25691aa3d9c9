package security

import "golang.org/x/crypto/bcrypt"

// AdminKeyChecker compares presented admin API keys against a bcrypt hash so
// the plaintext key never lives in configuration.
type AdminKeyChecker struct {
	Hash string
}

// Configured reports whether an admin key hash was provided.
func (c AdminKeyChecker) Configured() bool {
	return c.Hash != ""
}

func (c AdminKeyChecker) Check(key string) error {
	return bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(key))
}

// HashKey derives a bcrypt hash for an admin key; used by provisioning tooling
// and tests.
func HashKey(key string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
