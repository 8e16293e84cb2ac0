package proof

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Canonicalize returns the RFC 8785 form of doc with any top-level "proof"
// member removed. Member order in doc never affects the result.
func Canonicalize(doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err == nil {
		if _, ok := members["proof"]; ok {
			delete(members, "proof")
			if raw, err = json.Marshal(members); err != nil {
				return nil, fmt.Errorf("encode document: %w", err)
			}
		}
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize document: %w", err)
	}
	return out, nil
}

// SigningInput is what a suite signs: sha-256 of the canonical proof options
// (p without proofValue or jws) followed by sha-256 of the canonical document.
// Rewriting any proof member, created included, changes the input.
func SigningInput(doc any, p *Proof) ([]byte, error) {
	options := *p
	options.ProofValue, options.JWS = "", ""
	optionsCanonical, err := Canonicalize(options)
	if err != nil {
		return nil, fmt.Errorf("proof options: %w", err)
	}
	docCanonical, err := Canonicalize(doc)
	if err != nil {
		return nil, err
	}
	optionsDigest := sha256.Sum256(optionsCanonical)
	docDigest := sha256.Sum256(docCanonical)
	return append(optionsDigest[:], docDigest[:]...), nil
}
