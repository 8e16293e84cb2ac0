package wallet

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/suite"

	"didgate/internal/platform/docstore"
	dErrors "didgate/pkg/domain-errors"
	"didgate/pkg/secrets"
)

type WalletSuite struct {
	suite.Suite
	ctx    context.Context
	docs   *docstore.MemoryStore
	wallet *Wallet
}

func (s *WalletSuite) SetupTest() {
	s.ctx = context.Background()
	s.docs = docstore.NewMemory()
	sealer, err := secrets.NewSealer(make([]byte, 32))
	s.Require().NoError(err)
	s.wallet = New(s.docs, sealer)
}

func TestWalletSuite(t *testing.T) {
	suite.Run(t, new(WalletSuite))
}

func (s *WalletSuite) TestSignerUsesStoredKey() {
	pub, priv, err := ed25519.GenerateKey(nil)
	s.Require().NoError(err)
	s.Require().NoError(s.wallet.Put(s.ctx, "did:example:abc123", "did:example:abc123#key-1", priv))

	signer, err := s.wallet.Signer(s.ctx, "did:example:abc123")
	s.Require().NoError(err)
	s.Equal("did:example:abc123#key-1", signer.VerificationMethod())
	s.Equal(pub, signer.Public())

	digest := sha256.Sum256([]byte("hello"))
	sig, err := signer.Sign(nil, digest[:], crypto.Hash(0))
	s.Require().NoError(err)
	s.True(ed25519.Verify(pub, digest[:], sig))
}

func (s *WalletSuite) TestStoredEntryDoesNotContainSeed() {
	_, priv, err := ed25519.GenerateKey(nil)
	s.Require().NoError(err)
	s.Require().NoError(s.wallet.Put(s.ctx, "did:example:abc123", "did:example:abc123#key-1", priv))

	doc, err := s.docs.Get(s.ctx, "wallet/did:example:abc123")
	s.Require().NoError(err)
	s.NotContains(string(doc.Body), string(priv.Seed()))
}

func (s *WalletSuite) TestKeyIsNeverReplaced() {
	_, priv, err := ed25519.GenerateKey(nil)
	s.Require().NoError(err)
	s.Require().NoError(s.wallet.Put(s.ctx, "did:example:abc123", "did:example:abc123#key-1", priv))

	err = s.wallet.Put(s.ctx, "did:example:abc123", "did:example:abc123#key-1", priv)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *WalletSuite) TestUnknownDID() {
	_, err := s.wallet.Signer(s.ctx, "did:example:missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
