package service

import (
	"errors"
	"fmt"
)

// ErrAuth is the parent of every failure to obtain an access token.
var ErrAuth = errors.New("auth_failure")

var (
	ErrNoRefreshToken           = fmt.Errorf("%w: no refresh token in store or environment", ErrAuth)
	ErrMissingClientCredentials = fmt.Errorf("%w: missing client id or secret", ErrAuth)
	ErrProviderRejected         = fmt.Errorf("%w: refresh rejected by provider", ErrAuth)
	ErrRetriesExhausted         = fmt.Errorf("%w: token refresh retries exhausted", ErrAuth)
)

var (
	// ErrVerification means the transaction could not be confirmed as
	// belonging to the monitored account.
	ErrVerification = errors.New("verification_failed")

	// ErrUpstream wraps failed or malformed banking API responses.
	ErrUpstream = errors.New("upstream_failure")

	// ErrPersistence wraps store failures that abort an operation.
	ErrPersistence = errors.New("persistence_failure")
)
