package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/metrics"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/pkg/cryptox"
	"github.com/aussiebroadwan/balancebot/pkg/monzo"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

const (
	DefaultMaxAttempts   = 3
	DefaultEvictionDelay = time.Second

	// DefaultExpiresIn is assumed when the token response omits expires_in.
	DefaultExpiresIn = 21600 * time.Second

	// RefreshBuffer is taken off every expiry so a token is never used in
	// its last moments.
	RefreshBuffer = 120 * time.Second

	conflictDelayMin = 100 * time.Millisecond
	conflictDelayMax = 500 * time.Millisecond
)

// TokenService produces a valid access token, refreshing it when needed.
// Replicas coordinate through the store's credential version, so at most one
// refreshed pair is persisted per stored credential.
type TokenService struct {
	Store   store.Store
	API     TokenIssuer
	Metrics *metrics.Recorder

	ClientID     string
	ClientSecret string

	// RecoveryRefreshToken is used when the store holds no refresh token.
	RecoveryRefreshToken string

	MaxAttempts   int
	EvictionDelay time.Duration

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// AccessToken returns the stored access token when it is still valid and
// otherwise refreshes it.
//
// Each attempt reads the record, refreshes with the stored (or recovery)
// refresh token and writes the new pair conditioned on the version it read.
// An evicted refresh token means another caller refreshed first, so the
// attempt restarts after EvictionDelay. A version conflict restarts after a
// random 100-500ms. Any other write failure keeps the new pair and retries
// only the write, because the old refresh token has already been consumed.
func (s *TokenService) AccessToken(ctx context.Context) (string, error) {
	if s.ClientID == "" || s.ClientSecret == "" {
		return "", ErrMissingClientCredentials
	}

	l := slogx.FromContext(ctx)
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var (
		pending        *domain.Credential
		pendingVersion store.Version
		lastErr        error
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if pending == nil {
			rec, version, err := s.Store.Records().Read(ctx)
			if err != nil {
				return "", fmt.Errorf("%w: read credential: %w", ErrPersistence, err)
			}

			now := s.now()
			if rec.Credential.ValidAt(now) {
				return rec.Credential.AccessToken, nil
			}

			refreshToken := rec.Credential.RefreshToken
			source := "store"
			if refreshToken == "" {
				refreshToken = s.RecoveryRefreshToken
				source = "environment"
			}
			if refreshToken == "" {
				return "", ErrNoRefreshToken
			}

			l.Info("refreshing access token",
				slog.Int("attempt", attempt),
				slog.String("refresh_token_source", source),
				slog.String("refresh_token_fp", cryptox.FingerprintToken(refreshToken)),
			)

			tokens, err := s.API.RefreshToken(ctx, s.ClientID, s.ClientSecret, refreshToken)
			if err != nil {
				if monzo.IsEvicted(err) {
					s.Metrics.TokenRefresh(metrics.RefreshEvicted)
					l.Warn("refresh token evicted, another caller likely refreshed it", slog.Int("attempt", attempt))
					lastErr = err
					if err := s.sleep(ctx, s.evictionDelay()); err != nil {
						return "", err
					}
					continue
				}
				s.Metrics.TokenRefresh(metrics.RefreshRejected)
				return "", fmt.Errorf("%w: %w", ErrProviderRejected, err)
			}

			cred := credentialFromTokens(tokens, refreshToken, now)
			pending, pendingVersion = &cred, version
		}

		err := s.Store.Records().WriteCredential(ctx, *pending, pendingVersion)
		switch {
		case err == nil:
			s.Metrics.TokenRefresh(metrics.RefreshSuccess)
			l.Info("access token refreshed",
				slog.Time("expires_at", pending.ExpiresAt),
				slog.String("refresh_token_fp", cryptox.FingerprintToken(pending.RefreshToken)),
			)
			return pending.AccessToken, nil

		case errors.Is(err, store.ErrVersionConflict):
			s.Metrics.TokenRefresh(metrics.RefreshConflict)
			l.Info("credential changed concurrently, re-reading", slog.Int("attempt", attempt))
			pending = nil
			lastErr = err
			if err := s.sleep(ctx, conflictDelay()); err != nil {
				return "", err
			}

		default:
			s.Metrics.TokenRefresh(metrics.RefreshFailed)
			l.Error("failed to persist refreshed credential", slog.Int("attempt", attempt), slog.Any("error", err))
			lastErr = err
			if err := s.sleep(ctx, conflictDelay()); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, maxAttempts, lastErr)
}

// credentialFromTokens keeps the used refresh token when the response did not
// rotate it.
func credentialFromTokens(tokens *monzo.TokenResponse, used string, now time.Time) domain.Credential {
	lifetime := DefaultExpiresIn
	if tokens.ExpiresIn > 0 {
		lifetime = time.Duration(tokens.ExpiresIn) * time.Second
	}
	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		refreshToken = used
	}
	return domain.Credential{
		AccessToken:  tokens.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(lifetime - RefreshBuffer),
	}
}

func conflictDelay() time.Duration {
	return conflictDelayMin + rand.N(conflictDelayMax-conflictDelayMin)
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func (s *TokenService) evictionDelay() time.Duration {
	if s.EvictionDelay > 0 {
		return s.EvictionDelay
	}
	return DefaultEvictionDelay
}
