package models

import (
	"crypto/ed25519"
	"time"

	"didgate/internal/proof"
	id "didgate/pkg/domain"
)

const (
	ContextDIDv1        = "https://www.w3.org/ns/did/v1"
	ContextEd25519Suite = "https://w3id.org/security/suites/ed25519-2020/v1"
	VerificationKeyType = "Ed25519VerificationKey2020"
	DefaultKeyFragment  = "key-1"
)

// KeyPair is minted together with a DID. Only the wallet ever sees Private.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// VerificationMethod is a public key reference inside a DID document.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         id.DID `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// ServiceEndpoint advertises where the subject can be reached.
type ServiceEndpoint struct {
	ID              string `json:"id" validate:"required,notblank,max=200"`
	Type            string `json:"type" validate:"required,notblank,max=100"`
	ServiceEndpoint string `json:"serviceEndpoint" validate:"required,url,max=2048"`
}

// Document is the public DID document. It is superseded by updates, never deleted.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 id.DID               `json:"id"`
	Controller         id.DID               `json:"controller"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication"`
	AssertionMethod    []string             `json:"assertionMethod"`
	Service            []ServiceEndpoint    `json:"service,omitempty"`
	Created            time.Time            `json:"created"`
	Updated            time.Time            `json:"updated"`
}

// NewDocument builds a self-controlled document whose single key may both
// authenticate and assert.
func NewDocument(did id.DID, pub ed25519.PublicKey, now time.Time) (*Document, error) {
	multibaseKey, err := proof.EncodePublicKey(pub)
	if err != nil {
		return nil, err
	}
	vm := did.URL(DefaultKeyFragment)
	return &Document{
		Context:    []string{ContextDIDv1, ContextEd25519Suite},
		ID:         did,
		Controller: did,
		VerificationMethod: []VerificationMethod{{
			ID:                 vm,
			Type:               VerificationKeyType,
			Controller:         did,
			PublicKeyMultibase: multibaseKey,
		}},
		Authentication:  []string{vm},
		AssertionMethod: []string{vm},
		Created:         now,
		Updated:         now,
	}, nil
}

// FindMethod returns the verification method with the given id.
func (d *Document) FindMethod(vmID string) (*VerificationMethod, bool) {
	for i := range d.VerificationMethod {
		if d.VerificationMethod[i].ID == vmID {
			return &d.VerificationMethod[i], true
		}
	}
	return nil, false
}

// Authorizes reports whether vmID is listed under the relationship for purpose.
func (d *Document) Authorizes(vmID, purpose string) bool {
	var refs []string
	switch purpose {
	case proof.PurposeAuthentication:
		refs = d.Authentication
	case proof.PurposeAssertionMethod:
		refs = d.AssertionMethod
	}
	for _, ref := range refs {
		if ref == vmID {
			return true
		}
	}
	return false
}
