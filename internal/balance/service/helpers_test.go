package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/store"
	"github.com/aussiebroadwan/balancebot/pkg/monzo"
)

const testAccountID = "acc_test"

func int64Ptr(v int64) *int64 { return &v }

// staticToken always hands out the same access token.
type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

// failingToken never produces a token.
type failingToken struct{ err error }

func (f failingToken) AccessToken(context.Context) (string, error) { return "", f.err }

// fakeBank records every call and serves canned responses.
type fakeBank struct {
	mu sync.Mutex

	balance    *int64
	balanceErr error

	transactions map[string]*monzo.Transaction
	txErr        error

	feedItems   []monzo.FeedItem
	feedErr     error
	annotations map[string]string
	annotateErr error

	payments    []monzo.ScheduledPayment
	paymentsErr error
	deposits    []monzo.Deposit
	depositErr  error
}

func newFakeBank(balance int64) *fakeBank {
	return &fakeBank{
		balance:      int64Ptr(balance),
		transactions: map[string]*monzo.Transaction{},
		annotations:  map[string]string{},
	}
}

// addTransaction registers a transaction that verification will find.
func (f *fakeBank) addTransaction(id, accountID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[id] = &monzo.Transaction{ID: id, AccountID: accountID}
}

func (f *fakeBank) setBalance(v int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = int64Ptr(v)
}

func (f *fakeBank) Transaction(_ context.Context, _, id string) (*monzo.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txErr != nil {
		return nil, f.txErr
	}
	return f.transactions[id], nil
}

func (f *fakeBank) Balance(context.Context, string, string) (*monzo.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &monzo.Balance{Balance: f.balance, Currency: "GBP"}, nil
}

func (f *fakeBank) CreateFeedItem(_ context.Context, _ string, item monzo.FeedItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feedErr != nil {
		return f.feedErr
	}
	f.feedItems = append(f.feedItems, item)
	return nil
}

func (f *fakeBank) AnnotateTransaction(_ context.Context, _, id, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.annotateErr != nil {
		return f.annotateErr
	}
	f.annotations[id] = note
	return nil
}

func (f *fakeBank) ScheduledPayments(context.Context, string, string) ([]monzo.ScheduledPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paymentsErr != nil {
		return nil, f.paymentsErr
	}
	return f.payments, nil
}

func (f *fakeBank) DepositToPot(_ context.Context, _ string, d monzo.Deposit) (*monzo.Pot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.depositErr != nil {
		return nil, f.depositErr
	}
	f.deposits = append(f.deposits, d)
	return &monzo.Pot{ID: d.PotID, Balance: d.Amount}, nil
}

func (f *fakeBank) feedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.feedItems)
}

// rotatingIssuer behaves like the provider's token endpoint: each refresh
// token works once, and reuse is answered with an eviction.
type rotatingIssuer struct {
	mu       sync.Mutex
	consumed map[string]bool
	issued   int
	calls    int

	// evictAll answers every call with an eviction.
	evictAll bool

	// evictWait, when set, delays eviction responses until it is closed.
	evictWait <-chan struct{}

	// neverEvict issues a fresh pair on every call, even for reused tokens.
	neverEvict bool

	expiresIn int
	err       error
}

func newRotatingIssuer() *rotatingIssuer {
	return &rotatingIssuer{consumed: map[string]bool{}, expiresIn: 21600}
}

func evictedError() error {
	return &monzo.APIError{
		StatusCode: 400,
		Code:       "bad_request.evicted_refresh_token",
		Body:       `{"code":"bad_request.evicted_refresh_token","message":"Refresh token has been evicted"}`,
	}
}

func (r *rotatingIssuer) RefreshToken(ctx context.Context, _, _, refreshToken string) (*monzo.TokenResponse, error) {
	r.mu.Lock()
	r.calls++
	if r.err != nil {
		r.mu.Unlock()
		return nil, r.err
	}
	if r.evictAll || (r.consumed[refreshToken] && !r.neverEvict) {
		r.mu.Unlock()
		if r.evictWait != nil {
			select {
			case <-r.evictWait:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return nil, evictedError()
	}
	r.consumed[refreshToken] = true
	r.issued++
	n := r.issued
	r.mu.Unlock()

	return &monzo.TokenResponse{
		AccessToken:  fmt.Sprintf("at-%d", n),
		RefreshToken: fmt.Sprintf("rt-%d", n),
		ExpiresIn:    r.expiresIn,
	}, nil
}

func (r *rotatingIssuer) counts() (calls, issued int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.issued
}

// hookedStore lets a test intercept credential writes.
type hookedStore struct {
	store.Store

	mu          sync.Mutex
	writeHook   func(call int) error // runs before the real write; non-nil error aborts it
	writes      int
	successes   int
	afterCommit func()
}

func (h *hookedStore) Records() store.Records {
	return &hookedRecords{Records: h.Store.Records(), h: h}
}

type hookedRecords struct {
	store.Records
	h *hookedStore
}

func (r *hookedRecords) WriteCredential(ctx context.Context, cred domain.Credential, expected store.Version) error {
	r.h.mu.Lock()
	r.h.writes++
	call := r.h.writes
	hook := r.h.writeHook
	r.h.mu.Unlock()

	if hook != nil {
		if err := hook(call); err != nil {
			return err
		}
	}

	if err := r.Records.WriteCredential(ctx, cred, expected); err != nil {
		return err
	}

	r.h.mu.Lock()
	r.h.successes++
	after := r.h.afterCommit
	r.h.mu.Unlock()
	if after != nil {
		after()
	}
	return nil
}

func (h *hookedStore) successCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.successes
}

// brokenDedupe fails every check.
type brokenDedupe struct{ err error }

func (b brokenDedupe) Seen(context.Context, string, time.Duration) (bool, error) {
	return false, b.err
}

type brokenDedupeStore struct {
	store.Store
	err error
}

func (s brokenDedupeStore) Dedupe() store.Dedupe { return brokenDedupe{err: s.err} }

func noSleep(context.Context, time.Duration) error { return nil }
