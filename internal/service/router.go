package service

import (
	"strings"

	"satbridge/internal/models"
)

// CaptionRouter decides which active subscriptions receive a media message.
// When caption targeting is on and the caption's first word matches exactly
// one active subscription name, the message is routed to it alone;
// otherwise every active subscription gets it.
type CaptionRouter struct {
	registry         SubscriptionRegistry
	captionTargeting bool
	targetWordStrip  bool
}

func NewCaptionRouter(registry SubscriptionRegistry, captionTargeting, targetWordStrip bool) *CaptionRouter {
	return &CaptionRouter{
		registry:         registry,
		captionTargeting: captionTargeting,
		targetWordStrip:  targetWordStrip,
	}
}

// Route returns the delivery targets and the outgoing caption. An empty
// target list means the sender has no active subscriptions and delivery must
// be skipped entirely.
func (cr *CaptionRouter) Route(msisdn, caption string) ([]models.Subscription, string, error) {
	targets, err := cr.registry.ActiveTargets(msisdn)
	if err != nil {
		return nil, caption, err
	}
	if len(targets) == 0 {
		return nil, caption, nil
	}

	if !cr.captionTargeting || strings.TrimSpace(caption) == "" {
		return targets, caption, nil
	}

	first, rest := splitFirstWord(caption)
	if first == "" {
		return targets, caption, nil
	}

	var matched []models.Subscription
	for _, t := range targets {
		if strings.EqualFold(t.Name, first) {
			matched = append(matched, t)
		}
	}
	if len(matched) != 1 {
		return targets, caption, nil
	}

	if cr.targetWordStrip {
		return matched, rest, nil
	}
	return matched, caption, nil
}

// splitFirstWord splits a caption into its first whitespace-delimited token
// and the remainder.
func splitFirstWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	first := strings.Fields(s)[0]
	rest := strings.TrimSpace(strings.TrimPrefix(s, first))
	return first, rest
}
