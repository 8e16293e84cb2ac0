package proof

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
)

const TypeEd25519Signature2020 = "Ed25519Signature2020"

// Ed25519Signature2020 signs the proof/document digest pair with ed25519 and
// encodes the signature as a base58btc multibase string.
type Ed25519Signature2020 struct{}

func (Ed25519Signature2020) Type() string { return TypeEd25519Signature2020 }

func (Ed25519Signature2020) Sign(_ context.Context, input []byte, signer Signer, p *Proof) error {
	sig, err := signer.Sign(rand.Reader, input, crypto.Hash(0))
	if err != nil {
		return fmt.Errorf("sign digest: %w", err)
	}
	value, err := multibase.Encode(multibase.Base58BTC, sig)
	if err != nil {
		return fmt.Errorf("encode signature: %w", err)
	}
	p.ProofValue = value
	return nil
}

func (Ed25519Signature2020) Verify(_ context.Context, input []byte, p *Proof, key ed25519.PublicKey) error {
	if p.ProofValue == "" {
		return errors.New("proofValue missing")
	}
	enc, sig, err := multibase.Decode(p.ProofValue)
	if err != nil {
		return fmt.Errorf("decode proofValue: %w", err)
	}
	if enc != multibase.Base58BTC {
		return errors.New("proofValue must be base58btc")
	}
	if !ed25519.Verify(key, input, sig) {
		return errors.New("signature mismatch")
	}
	return nil
}
