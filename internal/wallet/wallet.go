// Package wallet is subject-side key custody. Private keys are sealed before
// they reach the document store and only leave as a proof.Signer.
package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"didgate/internal/platform/docstore"
	"didgate/internal/proof"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/secrets"
)

const keyPrefix = "wallet/"

type entry struct {
	DID                id.DID    `json:"did"`
	VerificationMethod string    `json:"verificationMethod"`
	SealedSeed         []byte    `json:"sealedSeed"`
	Created            time.Time `json:"created"`
}

// Wallet holds one key per DID.
type Wallet struct {
	docs   docstore.Store
	sealer *secrets.Sealer
}

func New(docs docstore.Store, sealer *secrets.Sealer) *Wallet {
	return &Wallet{docs: docs, sealer: sealer}
}

func key(did id.DID) string { return keyPrefix + did.String() }

// Put takes custody of priv for verificationMethod. A DID's key is never replaced.
func (w *Wallet) Put(ctx context.Context, did id.DID, verificationMethod string, priv ed25519.PrivateKey) error {
	sealed, err := w.sealer.Seal(priv.Seed(), []byte(did))
	if err != nil {
		return err
	}
	_, err = docstore.PutJSON(ctx, w.docs, key(did), 0, entry{
		DID:                did,
		VerificationMethod: verificationMethod,
		SealedSeed:         sealed,
		Created:            time.Now().UTC(),
	})
	if err != nil {
		return dErrors.FromStore(err, "failed to store holder key")
	}
	return nil
}

// Signer returns a signer for the DID's key.
func (w *Wallet) Signer(ctx context.Context, did id.DID) (proof.Signer, error) {
	e, _, err := docstore.GetJSON[entry](ctx, w.docs, key(did))
	if err != nil {
		return nil, dErrors.FromStore(err, fmt.Sprintf("no holder key for %s", did))
	}
	seed, err := w.sealer.Open(e.SealedSeed, []byte(did))
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, dErrors.New(dErrors.CodeInternal, "holder key has unexpected size")
	}
	return proof.NewKeySigner(ed25519.NewKeyFromSeed(seed), e.VerificationMethod), nil
}
