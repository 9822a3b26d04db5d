package monzo

import (
	"context"
	"net/http"
	"net/url"
)

// Balance returns the current balance of accountID.
func (c *Client) Balance(ctx context.Context, accessToken, accountID string) (*Balance, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/balance", accessToken,
		url.Values{"account_id": {accountID}}, nil)
	if err != nil {
		return nil, err
	}

	var balance Balance
	if err := decodeJSON(resp, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// Transaction looks up a single transaction. It returns nil without an error
// when the response carries no transaction object.
func (c *Client) Transaction(ctx context.Context, accessToken, transactionID string) (*Transaction, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/transactions/"+url.PathEscape(transactionID), accessToken, nil, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Transaction *Transaction `json:"transaction"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return payload.Transaction, nil
}

// AnnotateTransaction sets the notes metadata of a transaction.
func (c *Client) AnnotateTransaction(ctx context.Context, accessToken, transactionID, note string) error {
	data := url.Values{"metadata[notes]": {note}}

	resp, err := c.doRequest(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(transactionID), accessToken, nil, data)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// CreateFeedItem posts a basic feed item to the account.
func (c *Client) CreateFeedItem(ctx context.Context, accessToken string, item FeedItem) error {
	data := url.Values{
		"account_id":        {item.AccountID},
		"type":              {"basic"},
		"params[title]":     {item.Title},
		"params[body]":      {item.Body},
		"params[image_url]": {item.ImageURL},
	}
	if item.URL != "" {
		data.Set("url", item.URL)
	}
	if item.BackgroundColor != "" {
		data.Set("params[background_color]", item.BackgroundColor)
	}
	if item.TitleColor != "" {
		data.Set("params[title_color]", item.TitleColor)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/feed", accessToken, nil, data)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}
