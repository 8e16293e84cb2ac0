// Package secrets handles relying-party API secrets and at-rest sealing of
// holder key material.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/chacha20poly1305"

	dErrors "didgate/pkg/domain-errors"
)

// Generate creates a cryptographically secure random secret.
// Returns a base64url string suitable for use as a relying-party API secret.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the provided secret.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeValidation, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "secret is too long")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash secret")
	}
	return string(hashed), nil
}

// Verify checks if a plaintext secret matches a bcrypt hash.
func Verify(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid secret")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify secret")
	}
	return nil
}

// Sealer encrypts small payloads with XChaCha20-Poly1305. The associated data
// binds a ciphertext to its owner so a sealed key cannot be replayed under
// another DID.
type Sealer struct {
	key []byte
}

// NewSealer accepts a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sealing key must be 32 bytes")
	}
	return &Sealer{key: append([]byte(nil), key...)}, nil
}

// Seal returns nonce || ciphertext.
func (s *Sealer) Seal(plaintext, associatedData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not initialise cipher")
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not generate nonce")
	}
	return aead.Seal(nonce, nonce, plaintext, associatedData), nil
}

// Open reverses Seal. Tampering or a mismatched owner yields CodeInternal.
func (s *Sealer) Open(sealed, associatedData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not initialise cipher")
	}
	if len(sealed) < aead.NonceSize() {
		return nil, dErrors.New(dErrors.CodeInternal, "sealed payload truncated")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, associatedData)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sealed payload failed authentication")
	}
	return plaintext, nil
}
