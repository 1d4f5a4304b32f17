package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPhoto_Success(t *testing.T) {
	var gotUUID, gotFilename string
	var gotBytes []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/weddings/w1/photos", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotUUID = r.FormValue("uuids[]")

		f, hdr, err := r.FormFile("files[]")
		require.NoError(t, err)
		defer f.Close()
		gotFilename = hdr.Filename
		gotBytes, err = io.ReadAll(f)
		require.NoError(t, err)

		// empty photos slice on purpose: the client must flag the
		// missing per-file confirmation
		_ = json.NewEncoder(w).Encode(uploadResponse{})
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, nil)
	t.Cleanup(func() { _ = c.Close() })

	var progress []int
	photo := Photo{UUID: "u1", Filename: "cake.jpg", Content: []byte("jpegbytes")}
	_, err := c.UploadPhoto(context.Background(), "w1", photo, func(pct int) {
		progress = append(progress, pct)
	})
	var se *common.ServerError
	require.ErrorAs(t, err, &se)

	assert.Equal(t, "u1", gotUUID)
	assert.Equal(t, "cake.jpg", gotFilename)
	assert.Equal(t, []byte("jpegbytes"), gotBytes)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestUploadPhoto_ReturnsConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"photos":[{"originalFilename":"cake.jpg","storageKey":"weddings/w1/abc","uploadedBy":"guest","uploadSource":"web"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, nil)
	stored, err := c.UploadPhoto(context.Background(), "w1", Photo{UUID: "u1", Filename: "cake.jpg", Content: []byte{1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "cake.jpg", stored.OriginalFilename)
	assert.Equal(t, "weddings/w1/abc", stored.StorageKey)
}

func TestUploadPhoto_ProgressMonotonic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"photos":[{"storageKey":"k"}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, nil)

	var progress []int
	content := make([]byte, progressChunk*3+10)
	_, err := c.UploadPhoto(context.Background(), "w1", Photo{UUID: "u1", Filename: "big.jpg", Content: content}, func(pct int) {
		progress = append(progress, pct)
	})
	require.NoError(t, err)

	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		require.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestUploadPhoto_ServerErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"internal error", 500, true},
		{"too many requests", 429, true},
		{"payload rejected", 400, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				http.Error(w, "nope", tt.status)
			}))
			t.Cleanup(srv.Close)

			c := NewHTTPClient(srv.URL, nil)
			_, err := c.UploadPhoto(context.Background(), "w1", Photo{UUID: "u1", Filename: "a.jpg", Content: []byte{1}}, nil)

			var se *common.ServerError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.retryable, common.Retryable(err))
		})
	}
}

func TestUploadPhoto_CancelAbortsInFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c := NewHTTPClient(srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := c.UploadPhoto(ctx, "w1", Photo{UUID: "u1", Filename: "a.jpg", Content: make([]byte, progressChunk*8)}, nil)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestUploadPhoto_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c := NewHTTPClient(srv.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.UploadPhoto(ctx, "w1", Photo{UUID: "u1", Filename: "a.jpg", Content: make([]byte, progressChunk*8)}, nil)
	var ne *common.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, common.Retryable(err))
}

func TestUploadPhoto_ConnectionFailureIsNetworkError(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", nil) // nothing listens here

	_, err := c.UploadPhoto(context.Background(), "w1", Photo{UUID: "u1", Filename: "a.jpg", Content: []byte{1}}, nil)
	var ne *common.NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestRegisterMetadata(t *testing.T) {
	var got metadataRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/weddings/w1/photos/metadata", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, nil)
	meta := PhotoMetadata{UUID: "u1", SessionID: "s1", OriginalFilename: "cake.jpg", Extension: "jpg", StorageKey: "k1"}
	require.NoError(t, c.RegisterMetadata(context.Background(), "w1", meta))

	require.Len(t, got.Photos, 1)
	assert.Equal(t, "u1", got.Photos[0].UUID)
	assert.Equal(t, "k1", got.Photos[0].StorageKey)
}

func TestRegisterMetadata_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "schema mismatch", http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, nil)
	err := c.RegisterMetadata(context.Background(), "w1", PhotoMetadata{UUID: "u1"})

	var se *common.ServerError
	require.ErrorAs(t, err, &se)
	assert.False(t, common.Retryable(err))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, nil)
	require.NoError(t, c.Ping(context.Background()))

	srv.Close()
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}
