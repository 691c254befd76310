package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier checks a login password against the stored hash. The user
// store owns hashing at registration time; verification is split out so the
// login flow can be tested without real bcrypt work.
type PasswordVerifier interface {
	// Compare returns nil when password matches hashedPassword, or an
	// error (bcrypt.ErrMismatchedHashAndPassword on a wrong password).
	Compare(hashedPassword, password string) error
}

// BcryptVerifier is the production PasswordVerifier.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements PasswordVerifier.Compare
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
