package monzo

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// RefreshToken exchanges a refresh token for a new token pair. The old
// refresh token is consumed by a successful call.
func (c *Client) RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"refresh_token": {refreshToken},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth2/token", "", nil, data)
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, errors.New("monzo: token response missing access_token")
	}

	return &tokens, nil
}
