// Package proof signs and verifies detachable proofs over canonicalized JSON
// documents. Issuance and presentation code only ever see the Module; the
// concrete signature scheme is a Suite chosen at wiring time.
package proof

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"io"
	"time"
)

// Proof purposes, matching the DID document verification relationships.
const (
	PurposeAssertionMethod = "assertionMethod"
	PurposeAuthentication  = "authentication"
)

// Proof is the detachable proof block embedded in credentials and presentations.
// Exactly one of ProofValue or JWS is set, depending on the suite.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	VerificationMethod string    `json:"verificationMethod"`
	ProofPurpose       string    `json:"proofPurpose"`
	ProofValue         string    `json:"proofValue,omitempty"`
	JWS                string    `json:"jws,omitempty"`
}

// Signer produces signatures for one verification method. Implementations
// keep the private key to themselves.
type Signer interface {
	crypto.Signer
	VerificationMethod() string
}

// KeyResolver resolves a verification method to its public key, failing when
// the method is unknown or not authorized for purpose.
type KeyResolver interface {
	ResolveKey(ctx context.Context, verificationMethod, purpose string) (ed25519.PublicKey, error)
}

// Suite is one signature scheme. Sign fills ProofValue or JWS on p; Verify
// checks them against input, which the Module builds with SigningInput.
type Suite interface {
	Type() string
	Sign(ctx context.Context, input []byte, signer Signer, p *Proof) error
	Verify(ctx context.Context, input []byte, p *Proof, key ed25519.PublicKey) error
}

// KeySigner is a Signer over an in-memory ed25519 key.
type KeySigner struct {
	key ed25519.PrivateKey
	vm  string
}

func NewKeySigner(key ed25519.PrivateKey, verificationMethod string) *KeySigner {
	return &KeySigner{key: key, vm: verificationMethod}
}

func (s *KeySigner) Public() crypto.PublicKey { return s.key.Public() }

func (s *KeySigner) Sign(rand io.Reader, message []byte, opts crypto.SignerOpts) ([]byte, error) {
	return s.key.Sign(rand, message, opts)
}

func (s *KeySigner) VerificationMethod() string { return s.vm }
