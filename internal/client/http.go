package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/dmitrijs2005/photoqueue/internal/models"
)

// progressChunk is the copy granularity for byte transfers; each chunk
// written to the request body emits one progress event.
const progressChunk = 64 * 1024

// HTTPClient implements Client against the wedding photo API over HTTP.
// Requests are multipart for bytes and JSON for metadata. The batch endpoint
// accepts uuids[]/files[] arrays; one photo is sent per request so that
// aborting or reporting progress for a uuid never touches its siblings.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	tokens  *TokenSource
}

// NewHTTPClient returns a client for the API at baseURL. tokens may be nil
// when the endpoint requires no authentication (tests, local development).
func NewHTTPClient(baseURL string, tokens *TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
		tokens:  tokens,
	}
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

type uploadResponse struct {
	Photos []models.StoredPhoto `json:"photos"`
}

func (c *HTTPClient) UploadPhoto(ctx context.Context, weddingID string, photo Photo, onProgress ProgressFunc) (*models.StoredPhoto, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		if err := writeMultipart(mw, photo, onProgress); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	endpoint := fmt.Sprintf("%s/api/weddings/%s/photos", c.baseURL, url.PathEscape(weddingID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serverError(resp)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &common.NetworkError{Err: fmt.Errorf("decoding upload response: %w", err)}
	}
	if len(out.Photos) == 0 {
		return nil, &common.ServerError{StatusCode: resp.StatusCode, Body: "no storage confirmation in response"}
	}
	return &out.Photos[0], nil
}

// writeMultipart streams one photo into the multipart body, emitting a
// progress event per chunk. Writes block until the transport consumes the
// pipe, so progress tracks bytes actually leaving the client.
func writeMultipart(mw *multipart.Writer, photo Photo, onProgress ProgressFunc) error {
	if err := mw.WriteField("uuids[]", photo.UUID); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("files[]", photo.Filename)
	if err != nil {
		return err
	}

	total := len(photo.Content)
	sent := 0
	for sent < total {
		n := progressChunk
		if total-sent < n {
			n = total - sent
		}
		if _, err := part.Write(photo.Content[sent : sent+n]); err != nil {
			return err
		}
		sent += n
		if onProgress != nil {
			onProgress(sent * 100 / total)
		}
	}
	return nil
}

type metadataRequest struct {
	Photos []PhotoMetadata `json:"photos"`
}

func (c *HTTPClient) RegisterMetadata(ctx context.Context, weddingID string, meta PhotoMetadata) error {
	body, err := json.Marshal(metadataRequest{Photos: []PhotoMetadata{meta}})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/api/weddings/%s/photos/metadata", c.baseURL, url.PathEscape(weddingID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// mapTransportError classifies a failed round trip. A cancelled context is
// passed through untouched: the orchestrator distinguishes pause from cancel
// by the cancellation cause, and neither is a transport failure. Timeouts
// and everything else transport-level are transient network errors.
func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &common.NetworkError{Err: fmt.Errorf("request timed out: %w", err)}
	}
	return &common.NetworkError{Err: err}
}

func serverError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &common.ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
