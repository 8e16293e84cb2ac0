package proof

import (
	"crypto/ed25519"
	"fmt"

	"github.com/multiformats/go-multibase"
)

// ed25519-pub multicodec prefix (0xed, varint encoded).
var ed25519Codec = []byte{0xed, 0x01}

// EncodePublicKey renders key as a publicKeyMultibase value (base58btc).
func EncodePublicKey(key ed25519.PublicKey) (string, error) {
	buf := make([]byte, 0, len(ed25519Codec)+len(key))
	buf = append(buf, ed25519Codec...)
	buf = append(buf, key...)
	return multibase.Encode(multibase.Base58BTC, buf)
}

// DecodePublicKey parses a publicKeyMultibase value produced by EncodePublicKey.
func DecodePublicKey(s string) (ed25519.PublicKey, error) {
	enc, data, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode multibase key: %w", err)
	}
	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("unexpected multibase encoding %q", rune(enc))
	}
	if len(data) != len(ed25519Codec)+ed25519.PublicKeySize ||
		data[0] != ed25519Codec[0] || data[1] != ed25519Codec[1] {
		return nil, fmt.Errorf("not an ed25519 public key")
	}
	return ed25519.PublicKey(data[len(ed25519Codec):]), nil
}
