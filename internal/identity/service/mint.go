package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"didgate/internal/identity/models"
	id "didgate/pkg/domain"
)

// Minter produces a fresh DID and its key pair.
type Minter interface {
	Mint() (id.DID, *models.KeyPair, error)
}

// RandomMinter mints did:<method>:<32 hex chars> from a random UUID. Uniqueness
// rests on the 122-bit random space, not on a registry lookup.
type RandomMinter struct {
	Method string
}

func (m RandomMinter) Mint() (id.DID, *models.KeyPair, error) {
	u, err := uuid.NewRandomFromReader(rand.Reader)
	if err != nil {
		return "", nil, fmt.Errorf("read randomness for DID: %w", err)
	}
	did, err := id.ParseDID("did:" + m.Method + ":" + hex.EncodeToString(u[:]))
	if err != nil {
		return "", nil, err
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, fmt.Errorf("generate key pair: %w", err)
	}
	return did, &models.KeyPair{Public: pub, Private: priv}, nil
}
