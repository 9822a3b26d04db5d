package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/metrics"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

// Outcome is the acknowledgement returned to the event source. Every
// outcome is a success at the transport level so the provider never
// redelivers because of a processing error.
type Outcome string

const (
	OutcomeReceived       Outcome = "Received"
	OutcomeDuplicate      Outcome = "Duplicate"
	OutcomeProcessed      Outcome = "Processed"
	OutcomeErrorProcessed Outcome = "Error processed"
)

// WebhookService runs one inbound event through admission, alerting and
// the optional sweep.
type WebhookService struct {
	Gate    *AdmissionGate
	Alerts  *AlertService
	Sweep   *SweepService // nil disables the sweep
	Metrics *metrics.Recorder

	SeenTTL time.Duration
	Now     func() time.Time
}

// Handle processes an authenticated, decoded event. Only transaction.created
// events for the monitored account do any work.
func (s *WebhookService) Handle(ctx context.Context, ev domain.WebhookEvent) Outcome {
	outcome := s.handle(ctx, ev)
	s.Metrics.Event(string(outcome))
	return outcome
}

func (s *WebhookService) handle(ctx context.Context, ev domain.WebhookEvent) Outcome {
	if ev.Type != domain.EventTypeTransactionCreated {
		return OutcomeReceived
	}

	tx := ev.Data
	ctx = slogx.With(ctx, slog.String("event_id", tx.ID))
	l := slogx.FromContext(ctx)

	duplicate, err := s.Gate.Admit(ctx, tx.ID, s.SeenTTL)
	if err != nil {
		l.Error("admission check failed", slog.Any("error", err))
		return OutcomeErrorProcessed
	}
	if duplicate {
		l.Info("duplicate transaction ignored")
		return OutcomeDuplicate
	}

	if tx.AccountID != s.Alerts.AccountID {
		l.Debug("transaction for another account ignored", slog.String("account_id", tx.AccountID))
		return OutcomeReceived
	}

	start := time.Now()
	defer func() { s.Metrics.EventDuration(time.Since(start)) }()

	failed := false

	decision, err := s.Alerts.Evaluate(ctx, tx)
	if err != nil {
		l.Error("alert evaluation failed", slog.Any("error", err))
		failed = true
	} else {
		l.Info("alert evaluated",
			slog.String("severity", decision.Severity.String()),
			slog.Bool("notified", decision.Notify),
		)
	}

	if s.Sweep != nil {
		if _, err := s.Sweep.MaybeSweep(ctx, s.now()); err != nil {
			l.Error("commitments sweep failed", slog.Any("error", err))
			failed = true
		}
	}

	if failed {
		return OutcomeErrorProcessed
	}
	return OutcomeProcessed
}

func (s *WebhookService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
