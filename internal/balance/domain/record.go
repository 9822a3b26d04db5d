package domain

import "time"

// Credential is the bearer credential pair for the banking API together with
// the instant after which the access token must be treated as invalid. The
// refresh buffer is already subtracted from ExpiresAt.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ValidAt reports whether the access token can be used at t without a refresh.
func (c Credential) ValidAt(t time.Time) bool {
	return c.AccessToken != "" && t.Before(c.ExpiresAt)
}

// Record is the single persisted row shared by every invocation. It is read
// and passed around by value; only the store drivers know how it is laid out.
type Record struct {
	Credential Credential
	Alert      AlertState
	Sweep      SweepState
}
