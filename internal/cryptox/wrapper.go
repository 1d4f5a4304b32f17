package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/box"
)

// KeyWrapper is the pluggable key-wrapping capability: wrap a symmetric key
// under a recipient public key so it can be stored and transmitted without
// exposing the raw key. Unwrapping requires the matching private key.
type KeyWrapper interface {
	Wrap(key []byte, recipientPublicKey string) ([]byte, error)
	Unwrap(wrapped []byte, recipientPublicKey string, recipientPrivateKey []byte) ([]byte, error)
}

// NaClBoxWrapper wraps keys with NaCl anonymous boxes (curve25519 +
// XSalsa20-Poly1305, ephemeral sender key per wrap). Public keys are
// base64-encoded 32-byte curve25519 points, the format the wedding record
// stores for its album and process recipients.
type NaClBoxWrapper struct{}

func NewNaClBoxWrapper() *NaClBoxWrapper {
	return &NaClBoxWrapper{}
}

var errBadPublicKey = errors.New("recipient public key must be base64 of 32 bytes")

func decodePublicKey(s string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPublicKey, err)
	}
	if len(raw) != 32 {
		return nil, errBadPublicKey
	}
	var pub [32]byte
	copy(pub[:], raw)
	return &pub, nil
}

func orSystemRand(r io.Reader) io.Reader {
	if r == nil {
		return rand.Reader
	}
	return r
}

func (w *NaClBoxWrapper) Wrap(key []byte, recipientPublicKey string) ([]byte, error) {
	pub, err := decodePublicKey(recipientPublicKey)
	if err != nil {
		return nil, err
	}
	return box.SealAnonymous(nil, key, pub, nil)
}

func (w *NaClBoxWrapper) Unwrap(wrapped []byte, recipientPublicKey string, recipientPrivateKey []byte) ([]byte, error) {
	pub, err := decodePublicKey(recipientPublicKey)
	if err != nil {
		return nil, err
	}
	if len(recipientPrivateKey) != 32 {
		return nil, errors.New("recipient private key must be 32 bytes")
	}
	var priv [32]byte
	copy(priv[:], recipientPrivateKey)

	key, ok := box.OpenAnonymous(nil, wrapped, pub, &priv)
	if !ok {
		return nil, errors.New("key unwrap failed")
	}
	return key, nil
}

// GenerateRecipientKeyPair creates a curve25519 key pair for a wrap
// recipient, returning the public key base64-encoded as stored on the
// wedding record. rand may be nil to use the system CSPRNG.
func GenerateRecipientKeyPair(rand io.Reader) (publicKey string, privateKey []byte, err error) {
	pub, priv, err := box.GenerateKey(orSystemRand(rand))
	if err != nil {
		return "", nil, err
	}
	return base64.StdEncoding.EncodeToString(pub[:]), priv[:], nil
}
