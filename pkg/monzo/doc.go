/*
Package monzo is a small client for the parts of the Monzo API the balance
monitor needs.

# Overview

Every call takes the bearer access token explicitly. The client does not
cache or refresh credentials; that is the caller's job, because the refresh
token rotates on every use and must be persisted before it is used again.

	client := monzo.NewClient(monzo.DefaultBaseURL, monzo.Options{})

	tokens, err := client.RefreshToken(ctx, clientID, clientSecret, refreshToken)
	balance, err := client.Balance(ctx, tokens.AccessToken, accountID)

# Retries

Transport errors and 429/5xx responses are retried with exponential backoff
up to Options.MaxRetries times. Any other non-success status is returned as
an *APIError without retrying.

# Errors

	var apiErr *monzo.APIError
	if errors.As(err, &apiErr) && apiErr.IsEvicted() {
		// another process already rotated the refresh token
	}
*/
package monzo
