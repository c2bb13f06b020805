package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/cmsclient/internal/client/credentials"
)

var (
	ErrRejected = errors.New("refresh rejected")
	ErrNoToken  = errors.New("refresh response carries no token")
)

const maxRefreshBody = 64 << 10

type tokenResponse struct {
	Token string `json:"token"`
}

// HTTPRefresher POSTs to the refresh endpoint. The session cookie travels
// through the client's jar.
type HTTPRefresher struct {
	client *http.Client
	url    string
}

func NewHTTPRefresher(client *http.Client, refreshURL string) *HTTPRefresher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRefresher{client: client, url: refreshURL}
}

func (r *HTTPRefresher) Refresh(ctx context.Context) (credentials.Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxRefreshBody))
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRefreshBody)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if body.Token == "" {
		return "", ErrNoToken
	}
	return credentials.Credential(body.Token), nil
}
