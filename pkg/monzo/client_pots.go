package monzo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ScheduledPayments lists the recurring payments set up on accountID.
func (c *Client) ScheduledPayments(ctx context.Context, accessToken, accountID string) ([]ScheduledPayment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/scheduled_payments", accessToken,
		url.Values{"account_id": {accountID}}, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ScheduledPayments []ScheduledPayment `json:"scheduled_payments"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return payload.ScheduledPayments, nil
}

// DepositToPot moves money into a pot.
func (c *Client) DepositToPot(ctx context.Context, accessToken string, d Deposit) (*Pot, error) {
	data := url.Values{
		"source_account_id": {d.SourceAccountID},
		"amount":            {strconv.FormatInt(d.Amount, 10)},
		"dedupe_id":         {d.DedupeID},
	}

	resp, err := c.doRequest(ctx, http.MethodPut, "/pots/"+url.PathEscape(d.PotID)+"/deposit", accessToken, nil, data)
	if err != nil {
		return nil, err
	}

	var pot Pot
	if err := decodeJSON(resp, &pot); err != nil {
		return nil, err
	}
	return &pot, nil
}
