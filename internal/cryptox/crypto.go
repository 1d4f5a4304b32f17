// Package cryptox implements the per-photo encryption contract: a fresh
// random 256-bit symmetric key per photo, AES-GCM with a random nonce bound
// to the ciphertext, and the key wrapped independently under the album and
// process recipient public keys.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photoqueue/internal/common"
)

const (
	// KeySize is the symmetric key length (AES-256).
	KeySize = 32
	// NonceSize is the standard GCM nonce length.
	NonceSize = 12
)

// EncryptedPhoto is the output of EncryptOrFail: the authenticated
// ciphertext plus the photo key wrapped for both recipients. Both wrapped
// forms decrypt to the identical symmetric key; protecting each private key
// independently is the recipients' responsibility. No key material appears
// in plaintext anywhere in this structure.
type EncryptedPhoto struct {
	// EncryptedBytes is nonce || AES-GCM ciphertext, so decryption is
	// self-contained given the unwrapped key.
	EncryptedBytes []byte

	WrappedPhotoKey   []byte
	WrappedProcessKey []byte
}

// Encryptor encrypts photos and wraps their keys via a pluggable KeyWrapper.
type Encryptor struct {
	wrapper KeyWrapper
}

func NewEncryptor(wrapper KeyWrapper) *Encryptor {
	return &Encryptor{wrapper: wrapper}
}

// EncryptOrFail encrypts plain under a fresh random key and wraps the key
// under both recipient public keys. Encryption is all-or-nothing: if either
// key is absent it fails with common.ErrMissingKey before any bytes are
// transformed or key material generated. There is no plaintext fallback.
func (e *Encryptor) EncryptOrFail(plain []byte, albumPublicKey, processPublicKey string) (*EncryptedPhoto, error) {
	if albumPublicKey == "" {
		return nil, fmt.Errorf("album public key: %w", common.ErrMissingKey)
	}
	if processPublicKey == "" {
		return nil, fmt.Errorf("process public key: %w", common.ErrMissingKey)
	}

	key := common.GenerateRandByteArray(KeySize)
	defer common.WipeByteArray(key)

	encrypted, err := sealWithKey(plain, key)
	if err != nil {
		return nil, err
	}

	wrappedPhoto, err := e.wrapper.Wrap(key, albumPublicKey)
	if err != nil {
		return nil, fmt.Errorf("wrapping photo key: %w", err)
	}

	wrappedProcess, err := e.wrapper.Wrap(key, processPublicKey)
	if err != nil {
		return nil, fmt.Errorf("wrapping process key: %w", err)
	}

	return &EncryptedPhoto{
		EncryptedBytes:    encrypted,
		WrappedPhotoKey:   wrappedPhoto,
		WrappedProcessKey: wrappedProcess,
	}, nil
}

// sealWithKey encrypts plain with AES-GCM under key, prepending the random
// nonce. A nonce is generated fresh per call from the system CSPRNG; the
// key is single-use, so nonce reuse cannot occur across photos either.
func sealWithKey(plain, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	return aesgcm.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt reverses EncryptOrFail given the unwrapped symmetric key. Any
// modification of the ciphertext fails authentication and returns an error,
// never wrong plaintext.
func Decrypt(encrypted, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(encrypted) < aesgcm.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}

	nonce, ciphertext := encrypted[:aesgcm.NonceSize()], encrypted[aesgcm.NonceSize():]
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}
