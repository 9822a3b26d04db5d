package service

import (
	"encoding/json"
	"testing"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestRenderNotificationGolden(t *testing.T) {
	tests := []struct {
		name     string
		severity domain.Severity
		event    domain.TransactionEvent
		balance  int64
	}{
		{
			name:     "critical_with_merchant",
			severity: domain.SeverityCritical,
			event: domain.TransactionEvent{
				ID:       "tx_00009abc",
				Merchant: &domain.Merchant{ID: "merch_1", Name: "Corner Shop"},
			},
			balance: 9520,
		},
		{
			name:     "warning_description_fallback",
			severity: domain.SeverityWarning,
			event: domain.TransactionEvent{
				ID:          "tx_00009def",
				Description: "TFL TRAVEL CH",
			},
			balance: 24999,
		},
		{
			name:     "warning_without_id_or_merchant",
			severity: domain.SeverityWarning,
			event:    domain.TransactionEvent{},
			balance:  -1234,
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := RenderNotification(tt.severity, tt.event, tt.balance, DefaultClickURLBase)

			out, err := json.MarshalIndent(n, "", "  ")
			require.NoError(t, err)
			g.Assert(t, tt.name, append(out, '\n'))
		})
	}
}

func TestClickURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "monzo://transaction/tx_1", ClickURL("monzo://", "tx_1"))
	require.Equal(t, "monzo://home", ClickURL("monzo://", ""))
	require.Equal(t, "monzo://transaction/tx_1", ClickURL("", "tx_1"))
	require.Equal(t, "https://example.com/app/transaction/tx_1", ClickURL("https://example.com/app", "tx_1"))
}
