package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/metrics"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

const DefaultAlertFrequency = 10

// Decision is the outcome of evaluating one transaction.
type Decision struct {
	Notify   bool
	Severity domain.Severity
	Balance  int64
}

// AlertService checks the balance after a transaction and notifies the
// account holder when it is low.
type AlertService struct {
	Store   store.Store
	Tokens  AccessTokenSource
	API     AccountAPI
	Metrics *metrics.Recorder

	AccountID  string
	Thresholds domain.Thresholds

	// Frequency throttles repeated warnings: while the level stays at
	// warning, every Frequency-th event notifies.
	Frequency int

	ClickURLBase string
}

// Evaluate runs the alert workflow for one transaction event. Events for
// other accounts are ignored. The alert state is saved on a best effort
// basis and notification delivery failures are only logged.
func (s *AlertService) Evaluate(ctx context.Context, ev domain.TransactionEvent) (Decision, error) {
	if ev.AccountID != s.AccountID {
		return Decision{}, nil
	}

	l := slogx.FromContext(ctx).With(slog.String("transaction_id", ev.ID))

	accessToken, err := s.Tokens.AccessToken(ctx)
	if err != nil {
		return Decision{}, err
	}

	if err := s.verify(ctx, accessToken, ev.ID); err != nil {
		return Decision{}, err
	}

	balance, err := s.API.Balance(ctx, accessToken, s.AccountID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: balance: %w", ErrUpstream, err)
	}
	if balance == nil || balance.Balance == nil {
		return Decision{}, fmt.Errorf("%w: balance response missing balance field", ErrUpstream)
	}

	rec, _, err := s.Store.Records().Read(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: read alert state: %w", ErrPersistence, err)
	}

	level := s.Thresholds.Classify(*balance.Balance)
	next, notify := domain.Escalate(rec.Alert, level, s.frequency())

	switch {
	case level > rec.Alert.Level:
		l.Info("balance state escalated", slog.String("from", rec.Alert.Level.String()), slog.String("to", level.String()))
	case level < rec.Alert.Level:
		l.Info("balance state improved", slog.String("from", rec.Alert.Level.String()), slog.String("to", level.String()))
	}

	if err := s.Store.Records().SaveAlertState(ctx, next); err != nil {
		l.Error("failed to save alert state", slog.Any("error", err))
	}

	decision := Decision{Notify: notify, Severity: level, Balance: *balance.Balance}
	if notify {
		s.notify(ctx, accessToken, ev, decision)
	}

	return decision, nil
}

// verify confirms the transaction exists and belongs to the monitored
// account, so a forged webhook cannot trigger alerts.
func (s *AlertService) verify(ctx context.Context, accessToken, transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("%w: transaction id missing", ErrVerification)
	}

	tx, err := s.API.Transaction(ctx, accessToken, transactionID)
	if err != nil {
		return fmt.Errorf("%w: lookup %s: %w", ErrVerification, transactionID, err)
	}
	if tx == nil {
		return fmt.Errorf("%w: empty transaction payload for %s", ErrVerification, transactionID)
	}
	if tx.AccountID != s.AccountID {
		return fmt.Errorf("%w: transaction %s belongs to another account", ErrVerification, transactionID)
	}
	return nil
}

// notify posts the feed item and annotates the transaction. Both are
// independent and best effort.
func (s *AlertService) notify(ctx context.Context, accessToken string, ev domain.TransactionEvent, d Decision) {
	l := slogx.FromContext(ctx)
	n := RenderNotification(d.Severity, ev, d.Balance, s.ClickURLBase)

	failures := 0
	if err := s.API.CreateFeedItem(ctx, accessToken, n.FeedItem(s.AccountID)); err != nil {
		l.Error("failed to send feed item", slog.Any("error", err))
		failures++
	}

	if ev.ID != "" {
		if err := s.API.AnnotateTransaction(ctx, accessToken, ev.ID, n.Title); err != nil {
			l.Warn("failed to annotate transaction", slog.Any("error", err))
			failures++
		}
	}

	s.Metrics.Notification(d.Severity.String())
	l.Info("low balance notification sent",
		slog.String("severity", d.Severity.String()),
		slog.Int64("balance", d.Balance),
		slog.Int("delivery_failures", failures),
	)
}

func (s *AlertService) frequency() int {
	if s.Frequency < 1 {
		return DefaultAlertFrequency
	}
	return s.Frequency
}
