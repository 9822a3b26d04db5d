package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/balancebot/pkg/monzo"
)

// TokenIssuer exchanges a refresh token for a new token pair.
type TokenIssuer interface {
	RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*monzo.TokenResponse, error)
}

// AccessTokenSource hands out a currently valid bearer token.
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// AccountAPI is what the alert workflow needs from the banking API.
type AccountAPI interface {
	Transaction(ctx context.Context, accessToken, transactionID string) (*monzo.Transaction, error)
	Balance(ctx context.Context, accessToken, accountID string) (*monzo.Balance, error)
	CreateFeedItem(ctx context.Context, accessToken string, item monzo.FeedItem) error
	AnnotateTransaction(ctx context.Context, accessToken, transactionID, note string) error
}

// PotAPI is what the commitments sweep needs from the banking API.
type PotAPI interface {
	ScheduledPayments(ctx context.Context, accessToken, accountID string) ([]monzo.ScheduledPayment, error)
	DepositToPot(ctx context.Context, accessToken string, d monzo.Deposit) (*monzo.Pot, error)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
