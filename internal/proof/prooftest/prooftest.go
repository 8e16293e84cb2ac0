// Package prooftest holds proof doubles for tests: a hash-only suite that
// needs no key material and a static key resolver.
package prooftest

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"didgate/internal/proof"
	dErrors "didgate/pkg/domain-errors"
)

const TypeHash = "Sha256Hash2024"

// HashSuite "signs" by hashing the signing input. It detects tampering
// but proves nothing about who produced the proof; never wire it in a server.
type HashSuite struct{}

func (HashSuite) Type() string { return TypeHash }

func (HashSuite) Sign(_ context.Context, input []byte, _ proof.Signer, p *proof.Proof) error {
	sum := sha256.Sum256(input)
	p.ProofValue = base64.RawURLEncoding.EncodeToString(sum[:])
	return nil
}

func (HashSuite) Verify(_ context.Context, input []byte, p *proof.Proof, _ ed25519.PublicKey) error {
	sum := sha256.Sum256(input)
	if p.ProofValue != base64.RawURLEncoding.EncodeToString(sum[:]) {
		return errors.New("digest mismatch")
	}
	return nil
}

// Resolver maps verification methods to keys and the purposes they may sign for.
type Resolver struct {
	keys     map[string]ed25519.PublicKey
	purposes map[string]map[string]bool
	Err      error
}

func NewResolver() *Resolver {
	return &Resolver{keys: map[string]ed25519.PublicKey{}, purposes: map[string]map[string]bool{}}
}

// Add registers key under vm for the given purposes.
func (r *Resolver) Add(vm string, key ed25519.PublicKey, purposes ...string) {
	r.keys[vm] = key
	allowed := map[string]bool{}
	for _, p := range purposes {
		allowed[p] = true
	}
	r.purposes[vm] = allowed
}

func (r *Resolver) ResolveKey(_ context.Context, vm, purpose string) (ed25519.PublicKey, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	key, ok := r.keys[vm]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("verification method %s not found", vm))
	}
	if !r.purposes[vm][purpose] {
		return nil, dErrors.New(dErrors.CodeProofInvalid, fmt.Sprintf("%s not authorized for %s", vm, purpose))
	}
	return key, nil
}

// NewSigner returns a fresh ed25519 signer for vm and registers its public key.
func (r *Resolver) NewSigner(vm string, purposes ...string) *proof.KeySigner {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	r.Add(vm, pub, purposes...)
	return proof.NewKeySigner(priv, vm)
}
