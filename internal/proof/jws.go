package proof

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	jose "github.com/go-jose/go-jose/v3"
)

const TypeJSONWebSignature2020 = "JsonWebSignature2020"

// JSONWebSignature2020 carries an EdDSA compact JWS with a detached payload;
// the payload is the Module's signing input.
type JSONWebSignature2020 struct{}

func (JSONWebSignature2020) Type() string { return TypeJSONWebSignature2020 }

func (JSONWebSignature2020) Sign(_ context.Context, input []byte, signer Signer, p *Proof) error {
	js, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: opaque{signer}}, nil)
	if err != nil {
		return fmt.Errorf("create jws signer: %w", err)
	}
	obj, err := js.Sign(input)
	if err != nil {
		return fmt.Errorf("sign jws: %w", err)
	}
	detached, err := obj.DetachedCompactSerialize()
	if err != nil {
		return fmt.Errorf("serialize jws: %w", err)
	}
	p.JWS = detached
	return nil
}

func (JSONWebSignature2020) Verify(_ context.Context, input []byte, p *Proof, key ed25519.PublicKey) error {
	if p.JWS == "" {
		return errors.New("jws missing")
	}
	obj, err := jose.ParseDetached(p.JWS, input)
	if err != nil {
		return fmt.Errorf("parse jws: %w", err)
	}
	if len(obj.Signatures) != 1 || obj.Signatures[0].Header.Algorithm != string(jose.EdDSA) {
		return errors.New("jws must carry a single EdDSA signature")
	}
	if _, err := obj.Verify(key); err != nil {
		return fmt.Errorf("verify jws: %w", err)
	}
	return nil
}

// opaque adapts a Signer to jose.OpaqueSigner so private keys never have to
// be handed to the JOSE library.
type opaque struct{ s Signer }

func (o opaque) Public() *jose.JSONWebKey {
	return &jose.JSONWebKey{Key: o.s.Public(), KeyID: o.s.VerificationMethod(), Algorithm: string(jose.EdDSA)}
}

func (o opaque) Algs() []jose.SignatureAlgorithm { return []jose.SignatureAlgorithm{jose.EdDSA} }

func (o opaque) SignPayload(payload []byte, alg jose.SignatureAlgorithm) ([]byte, error) {
	if alg != jose.EdDSA {
		return nil, fmt.Errorf("unsupported algorithm %s", alg)
	}
	return o.s.Sign(rand.Reader, payload, crypto.Hash(0))
}
