package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryable_Network(t *testing.T) {
	err := fmt.Errorf("upload: %w", &NetworkError{Err: errors.New("connection reset")})
	assert.True(t, Retryable(err))
}

func TestRetryable_ServerStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"internal error", 500, true},
		{"bad gateway", 502, true},
		{"too many requests", 429, true},
		{"bad request", 400, false},
		{"payload too large", 413, false},
		{"forbidden", 403, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ServerError{StatusCode: tt.status, Body: "x"}
			assert.Equal(t, tt.want, Retryable(err))
		})
	}
}

func TestRetryable_NeverForValidationOrStorage(t *testing.T) {
	assert.False(t, Retryable(&ValidationError{Field: "payload", Msg: "empty"}))
	assert.False(t, Retryable(&StorageError{Op: "put", Err: errors.New("disk full")}))
	assert.False(t, Retryable(ErrMissingKey))
}

func TestStorageError_Unwrap(t *testing.T) {
	inner := errors.New("database is locked")
	err := fmt.Errorf("put: %w", &StorageError{Op: "put", Err: inner})

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "put", se.Op)
	assert.ErrorIs(t, err, inner)
}

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 32
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)
	require.Len(t, a, n)
	require.Len(t, b, n)
	assert.NotEqual(t, a, b)
}

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		require.Zerof(t, v, "buf[%d] not wiped", i)
	}
	WipeByteArray(nil) // nil-safe
}
