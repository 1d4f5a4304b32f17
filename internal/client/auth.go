package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// refreshSkew is how close to the exp claim the access token may get before
// it is refreshed proactively, so long uploads don't fail mid-transfer with
// an expired token.
const refreshSkew = 30 * time.Second

// TokenSource holds the access/refresh token pair issued at login and hands
// out a valid access token on demand. Login itself happens outside this
// module; the pair is injected via SetTokens.
type TokenSource struct {
	mu sync.Mutex

	hc         *http.Client
	refreshURL string

	accessToken  string
	refreshToken string

	now func() time.Time // test seam
}

func NewTokenSource(refreshURL string) *TokenSource {
	return &TokenSource{
		hc:         &http.Client{Timeout: 10 * time.Second},
		refreshURL: refreshURL,
		now:        time.Now,
	}
}

// SetTokens installs a token pair, replacing any previous one.
func (t *TokenSource) SetTokens(access, refresh string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accessToken = access
	t.refreshToken = refresh
}

// Token returns a bearer token for the next request, exchanging the refresh
// token first when the access token is expired or about to expire.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.accessToken == "" {
		return "", ErrNoTokens
	}

	exp, err := tokenExpiry(t.accessToken)
	if err == nil && t.now().Add(refreshSkew).Before(exp) {
		return t.accessToken, nil
	}
	// expired, about to expire, or unparsable: try to refresh
	if t.refreshToken == "" {
		return t.accessToken, nil
	}
	if err := t.refresh(ctx); err != nil {
		return "", err
	}
	return t.accessToken, nil
}

// tokenExpiry decodes the exp claim without verifying the signature.
// Verification is the server's job; the client only wants to know when to
// refresh.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.Time, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refresh exchanges the refresh token for a new pair. Caller holds t.mu.
func (t *TokenSource) refresh(ctx context.Context) error {
	body, err := json.Marshal(refreshRequest{RefreshToken: t.refreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.hc.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return &common.NetworkError{Err: fmt.Errorf("decoding refresh response: %w", err)}
	}

	t.accessToken = out.AccessToken
	t.refreshToken = out.RefreshToken
	return nil
}
