package cryptox

import (
	"bytes"
	"testing"

	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) (albumPub string, albumPriv []byte, processPub string, processPriv []byte) {
	t.Helper()
	albumPub, albumPriv, err := GenerateRecipientKeyPair(nil)
	require.NoError(t, err)
	processPub, processPriv, err = GenerateRecipientKeyPair(nil)
	require.NoError(t, err)
	return albumPub, albumPriv, processPub, processPriv
}

func TestEncryptOrFail_RoundTrip(t *testing.T) {
	albumPub, albumPriv, processPub, processPriv := testKeys(t)
	e := NewEncryptor(NewNaClBoxWrapper())

	plain := []byte("ten bytes!")
	require.Len(t, plain, 10)

	ep, err := e.EncryptOrFail(plain, albumPub, processPub)
	require.NoError(t, err)
	assert.NotContains(t, string(ep.EncryptedBytes), string(plain))

	w := NewNaClBoxWrapper()

	// both wrapped forms must decrypt to the identical symmetric key
	keyA, err := w.Unwrap(ep.WrappedPhotoKey, albumPub, albumPriv)
	require.NoError(t, err)
	keyP, err := w.Unwrap(ep.WrappedProcessKey, processPub, processPriv)
	require.NoError(t, err)
	require.Equal(t, keyA, keyP)
	require.Len(t, keyA, KeySize)

	got, err := Decrypt(ep.EncryptedBytes, keyA)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestEncryptOrFail_BitFlipFailsAuthentication(t *testing.T) {
	albumPub, albumPriv, processPub, _ := testKeys(t)
	e := NewEncryptor(NewNaClBoxWrapper())

	ep, err := e.EncryptOrFail([]byte("wedding cake"), albumPub, processPub)
	require.NoError(t, err)

	key, err := NewNaClBoxWrapper().Unwrap(ep.WrappedPhotoKey, albumPub, albumPriv)
	require.NoError(t, err)

	// flip one bit anywhere past the nonce
	tampered := bytes.Clone(ep.EncryptedBytes)
	tampered[NonceSize+3] ^= 0x01

	_, err = Decrypt(tampered, key)
	require.Error(t, err, "authentication must fail, never wrong plaintext")
}

func TestEncryptOrFail_MissingKey(t *testing.T) {
	albumPub, _, processPub, _ := testKeys(t)
	e := NewEncryptor(NewNaClBoxWrapper())

	_, err := e.EncryptOrFail([]byte("x"), "", processPub)
	require.ErrorIs(t, err, common.ErrMissingKey)

	_, err = e.EncryptOrFail([]byte("x"), albumPub, "")
	require.ErrorIs(t, err, common.ErrMissingKey)
}

func TestEncryptOrFail_FreshKeyAndNoncePerPhoto(t *testing.T) {
	albumPub, albumPriv, processPub, _ := testKeys(t)
	e := NewEncryptor(NewNaClBoxWrapper())
	w := NewNaClBoxWrapper()

	plain := []byte("same input twice")

	a, err := e.EncryptOrFail(plain, albumPub, processPub)
	require.NoError(t, err)
	b, err := e.EncryptOrFail(plain, albumPub, processPub)
	require.NoError(t, err)

	keyA, err := w.Unwrap(a.WrappedPhotoKey, albumPub, albumPriv)
	require.NoError(t, err)
	keyB, err := w.Unwrap(b.WrappedPhotoKey, albumPub, albumPriv)
	require.NoError(t, err)

	assert.NotEqual(t, keyA, keyB, "symmetric key must be single-use")
	assert.NotEqual(t, a.EncryptedBytes[:NonceSize], b.EncryptedBytes[:NonceSize], "nonce must be fresh per encryption")
	assert.NotEqual(t, a.EncryptedBytes, b.EncryptedBytes)
}

func TestWrap_IndependentCiphertexts(t *testing.T) {
	albumPub, _, processPub, _ := testKeys(t)
	e := NewEncryptor(NewNaClBoxWrapper())

	ep, err := e.EncryptOrFail([]byte("bouquet toss"), albumPub, processPub)
	require.NoError(t, err)

	assert.NotEqual(t, ep.WrappedPhotoKey, ep.WrappedProcessKey)
}

func TestWrap_RejectsMalformedPublicKey(t *testing.T) {
	w := NewNaClBoxWrapper()

	_, err := w.Wrap(make([]byte, KeySize), "not-base64!!")
	require.Error(t, err)

	_, err = w.Wrap(make([]byte, KeySize), "c2hvcnQ=") // base64 of "short"
	require.Error(t, err)
}

func TestUnwrap_WrongPrivateKeyFails(t *testing.T) {
	albumPub, _, processPub, processPriv := testKeys(t)
	e := NewEncryptor(NewNaClBoxWrapper())
	w := NewNaClBoxWrapper()

	ep, err := e.EncryptOrFail([]byte("guest list"), albumPub, processPub)
	require.NoError(t, err)

	// process private key cannot open the album-wrapped key
	_, err = w.Unwrap(ep.WrappedPhotoKey, albumPub, processPriv)
	require.Error(t, err)
}
