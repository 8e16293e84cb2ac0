package service

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"didgate/internal/proof"
	id "didgate/pkg/domain"
	dErrors "didgate/pkg/domain-errors"
)

// KeyResolver resolves verification methods against stored DID documents.
// Every call reads the current document; nothing is cached.
type KeyResolver struct {
	store Store
}

func NewKeyResolver(store Store) *KeyResolver {
	return &KeyResolver{store: store}
}

var _ proof.KeyResolver = (*KeyResolver)(nil)

func (r *KeyResolver) ResolveKey(ctx context.Context, vm, purpose string) (ed25519.PublicKey, error) {
	did, _, err := id.SplitDIDURL(vm)
	if err != nil {
		return nil, err
	}
	doc, _, err := r.store.Get(ctx, did)
	if err != nil {
		return nil, dErrors.FromStore(err, fmt.Sprintf("DID %s not found", did))
	}
	method, ok := doc.FindMethod(vm)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("verification method %s not in DID document", vm))
	}
	if !doc.Authorizes(vm, purpose) {
		return nil, dErrors.New(dErrors.CodeProofInvalid,
			fmt.Sprintf("verification method %s is not authorized for %s", vm, purpose))
	}
	key, err := proof.DecodePublicKey(method.PublicKeyMultibase)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProofInvalid, "verification method key is malformed")
	}
	return key, nil
}
