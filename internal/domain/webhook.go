package domain

import "time"

// Webhook events an account can subscribe to.
const (
	EventTradeExecuted  = "trade.executed"
	EventOrderFinished  = "order.finished"
	EventAccountSettled = "account.settled"
)

// Webhook is an account's subscription to an event notification.
type Webhook struct {
	WebhookID string    `json:"webhook_id"`
	Account   string    `json:"account_key"`
	Event     string    `json:"event"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
