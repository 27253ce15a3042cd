// Package authsecret guards the engine's startup password: a single
// shared secret the wire layer checks during connection handshake, not a
// per-user credential store. It issues no tokens itself: the admin API's
// /auth/login verifies this password before issuing a bearer token
// (internal/adminapi/authtoken).
package authsecret

import "golang.org/x/crypto/bcrypt"

// Hash bcrypt-hashes password for storage in configuration.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches the given bcrypt hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
