package models

import "strings"

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Subscription is one named webhook subscription owned by a sender. Keyed in
// the registry by (msisdn, lowercased name); Name keeps the display casing.
type Subscription struct {
	Name        string             `json:"name"`
	Status      SubscriptionStatus `json:"status"`
	VerifyCode  string             `json:"verify_code"`
	WebhookURL  string             `json:"webhook_url"`
	BearerToken string             `json:"bearer_token"`
	CreatedAt   int64              `json:"created_ts"`
	UpdatedAt   int64              `json:"updated_ts"`
}

// Key returns the registry key for a subscription name.
func SubscriptionKey(name string) string {
	return strings.ToLower(name)
}

// IsActive reports whether the subscription should receive deliveries.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}
