package model

// PasswordHasher applies a one-way transform to account credentials.
type PasswordHasher interface {
	// Hash returns a salted hash of the plaintext. Repeated calls with the
	// same input produce different outputs.
	Hash(password string) (string, error)

	// Verify reports whether plaintext matches the stored hash. A mismatch
	// is (false, nil); an error means the stored hash is malformed.
	Verify(password, hash string) (bool, error)
}
