package domain

import "encoding/json"

// EventTypeTransactionCreated is the only webhook event type that is processed.
const EventTypeTransactionCreated = "transaction.created"

// WebhookEvent is the inbound notification envelope.
type WebhookEvent struct {
	Type string           `json:"type"`
	Data TransactionEvent `json:"data"`
}

// TransactionEvent is the transaction carried by a webhook. Raw keeps the
// original data object for logging and debugging.
type TransactionEvent struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description,omitempty"`
	Merchant    *Merchant       `json:"merchant,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// Merchant is the subset of merchant details used for notifications.
type Merchant struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// MerchantName picks the best label for the transaction counterparty.
func (e TransactionEvent) MerchantName() string {
	if e.Merchant != nil && e.Merchant.Name != "" {
		return e.Merchant.Name
	}
	if e.Description != "" {
		return e.Description
	}
	return "Unknown"
}

// UnmarshalJSON keeps a copy of the raw payload. The provider sends merchant
// either as an expanded object or as a bare id string.
func (e *TransactionEvent) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID          string          `json:"id"`
		AccountID   string          `json:"account_id"`
		Amount      int64           `json:"amount"`
		Description string          `json:"description"`
		Merchant    json.RawMessage `json:"merchant"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*e = TransactionEvent{
		ID:          aux.ID,
		AccountID:   aux.AccountID,
		Amount:      aux.Amount,
		Description: aux.Description,
		Raw:         append(json.RawMessage(nil), b...),
	}

	if len(aux.Merchant) == 0 || string(aux.Merchant) == "null" {
		return nil
	}

	var m Merchant
	if err := json.Unmarshal(aux.Merchant, &m); err == nil {
		e.Merchant = &m
		return nil
	}

	var id string
	if err := json.Unmarshal(aux.Merchant, &id); err != nil {
		return err
	}
	if id != "" {
		e.Merchant = &Merchant{ID: id}
	}
	return nil
}
