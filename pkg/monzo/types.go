package monzo

// TokenResponse is the OAuth2 token endpoint response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds. Zero when omitted.
	ExpiresIn int    `json:"expires_in,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
}

// Balance is the account balance in minor units. Balance is nil when the
// response did not carry the field.
type Balance struct {
	Balance      *int64 `json:"balance"`
	TotalBalance int64  `json:"total_balance,omitempty"`
	Currency     string `json:"currency,omitempty"`
	SpendToday   int64  `json:"spend_today,omitempty"`
}

type Transaction struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Description string            `json:"description,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FeedItem is a basic feed item shown in the account holder's app.
type FeedItem struct {
	AccountID       string
	URL             string
	Title           string
	Body            string
	ImageURL        string
	BackgroundColor string
	TitleColor      string
}

type ScheduledPayment struct {
	ID          string   `json:"id"`
	Amount      int64    `json:"amount"`
	Active      bool     `json:"active"`
	Description string   `json:"description,omitempty"`
	Schedule    Schedule `json:"schedule"`
}

type Schedule struct {
	Frequency string `json:"frequency"`
}

// Deposit moves money from an account into a pot. DedupeID makes a repeated
// request with the same id a no-op on the provider side.
type Deposit struct {
	PotID           string
	SourceAccountID string
	Amount          int64
	DedupeID        string
}

// Pot is returned by a deposit.
type Pot struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Balance int64  `json:"balance"`
}
