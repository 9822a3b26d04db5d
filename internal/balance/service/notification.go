package service

import (
	"fmt"
	"strings"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/pkg/monzo"
)

const (
	DefaultClickURLBase = "monzo://"

	notificationBody     = "Tap to view transaction details"
	notificationImageURL = "https://cdn-icons-png.flaticon.com/512/564/564619.png"
	titleColor           = "#333333"
	criticalColor        = "#E74C3C"
	warningColor         = "#F1C40F"
)

// Notification is a rendered low balance alert.
type Notification struct {
	Title           string `json:"title"`
	Body            string `json:"body"`
	URL             string `json:"url"`
	ImageURL        string `json:"image_url"`
	BackgroundColor string `json:"background_color"`
	TitleColor      string `json:"title_color"`
}

// RenderNotification builds the feed item text for a transaction that left
// the account at severity with the given balance.
func RenderNotification(severity domain.Severity, ev domain.TransactionEvent, balance int64, clickURLBase string) Notification {
	prefix, color := "BALANCE WARNING", warningColor
	if severity == domain.SeverityCritical {
		prefix, color = "BALANCE CRITICAL", criticalColor
	}

	return Notification{
		Title:           fmt.Sprintf("%s: Spent at %s Balance: %s", prefix, ev.MerchantName(), domain.FormatMinor(balance)),
		Body:            notificationBody,
		URL:             ClickURL(clickURLBase, ev.ID),
		ImageURL:        notificationImageURL,
		BackgroundColor: color,
		TitleColor:      titleColor,
	}
}

// ClickURL deep links to the transaction, or to the app home screen when the
// transaction id is unknown.
func ClickURL(base, transactionID string) string {
	if base == "" {
		base = DefaultClickURLBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if transactionID == "" {
		return base + "home"
	}
	return base + "transaction/" + transactionID
}

// FeedItem addresses the notification to an account.
func (n Notification) FeedItem(accountID string) monzo.FeedItem {
	return monzo.FeedItem{
		AccountID:       accountID,
		URL:             n.URL,
		Title:           n.Title,
		Body:            n.Body,
		ImageURL:        n.ImageURL,
		BackgroundColor: n.BackgroundColor,
		TitleColor:      n.TitleColor,
	}
}
