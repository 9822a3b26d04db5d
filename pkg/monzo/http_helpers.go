package monzo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// url builds a complete URL by appending the path and query to the base URL.
func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// response is a fully read HTTP response.
type response struct {
	StatusCode int
	Body       []byte
}

// doRequest sends a request, retrying transport failures and 429/5xx with
// exponential backoff. form, when non-nil, is sent urlencoded. The body is
// rebuilt for every attempt.
func (c *Client) doRequest(
	ctx context.Context,
	method, path, accessToken string,
	query, form url.Values,
) (*response, error) {
	var out *response

	op := func() error {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		if accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		out = &response{StatusCode: resp.StatusCode, Body: bodyBytes}
		if retryableStatus(resp.StatusCode) {
			return parseErrorResponse(resp.StatusCode, bodyBytes)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return out, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// decodeJSON decodes a successful response into target, or returns an
// *APIError for any non-2xx status.
func decodeJSON(resp *response, target any) error {
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp.StatusCode, resp.Body)
	}
	return nil
}
