package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/metrics"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/pkg/monzo"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

// SweepService moves the month's committed spending into a reserve pot, at
// most once per calendar month.
type SweepService struct {
	Store   store.Store
	Tokens  AccessTokenSource
	API     PotAPI
	Metrics *metrics.Recorder

	AccountID string
	PotID     string
}

// SweepResult describes what MaybeSweep did.
type SweepResult struct {
	Period   string
	Amount   int64
	Swept    bool
	Skipped  bool
	DedupeID string
	Unknown  []string
}

// MaybeSweep sweeps for the period containing now unless that period was
// already swept. A failed listing or deposit leaves the marker untouched,
// so the next event in the same month retries. The deposit carries a dedupe
// id derived from the account and period, so a retry after a failed marker
// write cannot move the money twice.
func (s *SweepService) MaybeSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	l := slogx.FromContext(ctx)
	period := domain.PeriodOf(now)
	result := SweepResult{Period: period}

	rec, _, err := s.Store.Records().Read(ctx)
	if err != nil {
		s.Metrics.Sweep(metrics.SweepFailed)
		return result, fmt.Errorf("%w: read sweep state: %w", ErrPersistence, err)
	}
	if rec.Sweep.LastPeriod == period {
		s.Metrics.Sweep(metrics.SweepSkipped)
		result.Skipped = true
		return result, nil
	}

	accessToken, err := s.Tokens.AccessToken(ctx)
	if err != nil {
		s.Metrics.Sweep(metrics.SweepFailed)
		return result, err
	}

	payments, err := s.API.ScheduledPayments(ctx, accessToken, s.AccountID)
	if err != nil {
		s.Metrics.Sweep(metrics.SweepFailed)
		return result, fmt.Errorf("%w: scheduled payments: %w", ErrUpstream, err)
	}

	total, unknown := domain.MonthlyTotal(commitmentsFrom(payments))
	result.Amount = total
	result.Unknown = unknown
	if len(unknown) > 0 {
		l.Warn("skipping scheduled payments with unknown frequency", slog.Any("frequencies", unknown))
	}

	if total > 0 {
		result.DedupeID = domain.SweepDedupeID(s.AccountID, period)
		_, err := s.API.DepositToPot(ctx, accessToken, monzo.Deposit{
			PotID:           s.PotID,
			SourceAccountID: s.AccountID,
			Amount:          total,
			DedupeID:        result.DedupeID,
		})
		if err != nil {
			s.Metrics.Sweep(metrics.SweepFailed)
			return result, fmt.Errorf("%w: pot deposit: %w", ErrUpstream, err)
		}
		result.Swept = true
	}

	if err := s.Store.Records().SaveSweepState(ctx, domain.SweepState{LastPeriod: period}); err != nil {
		s.Metrics.Sweep(metrics.SweepFailed)
		return result, fmt.Errorf("%w: save sweep state: %w", ErrPersistence, err)
	}

	if result.Swept {
		s.Metrics.Sweep(metrics.SweepDeposited)
	} else {
		s.Metrics.Sweep(metrics.SweepNothing)
	}
	l.Info("commitments sweep complete",
		slog.String("period", period),
		slog.String("amount", domain.FormatMinor(total)),
		slog.Bool("deposited", result.Swept),
	)

	return result, nil
}

func commitmentsFrom(payments []monzo.ScheduledPayment) []domain.Commitment {
	out := make([]domain.Commitment, 0, len(payments))
	for _, p := range payments {
		out = append(out, domain.Commitment{
			Amount:    p.Amount,
			Active:    p.Active,
			Frequency: p.Schedule.Frequency,
		})
	}
	return out
}
