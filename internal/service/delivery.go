package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"satbridge/internal/media"
	"satbridge/internal/models"
	"satbridge/internal/privacy"
	"satbridge/internal/retry"
	"satbridge/internal/tracing"
	"satbridge/pkg/webhook"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Outcome classifies one per-target delivery attempt cycle.
type Outcome int

const (
	// OutcomeSuccess covers 2xx and 409 (receiver already has the message).
	OutcomeSuccess Outcome = iota
	// OutcomeAuthRevoked covers 401/403; the subscription is deactivated.
	OutcomeAuthRevoked
	// OutcomeFailed means the backoff schedule was exhausted.
	OutcomeFailed
)

// DeliveryEngine posts a media payload to each routed subscription with a
// fixed-schedule retry. Targets are independent: an auth failure on one does
// not stop delivery to the others.
type DeliveryEngine struct {
	client   webhook.Client
	registry SubscriptionRegistry
	router   *CaptionRouter
	schedule retry.Schedule
	mode     models.ForwardMode
	logger   *logrus.Logger
}

func NewDeliveryEngine(client webhook.Client, registry SubscriptionRegistry, router *CaptionRouter, schedule retry.Schedule, mode models.ForwardMode, logger *logrus.Logger) *DeliveryEngine {
	return &DeliveryEngine{
		client:   client,
		registry: registry,
		router:   router,
		schedule: schedule,
		mode:     mode,
		logger:   logger,
	}
}

// ForwardMedia routes the message and delivers the payload to every target.
// Returns true only when the message actually reached all of its targets; a
// sender with no active subscriptions reports false so the caller keeps the
// source file.
func (de *DeliveryEngine) ForwardMedia(ctx context.Context, msg models.Message, msisdn, attachmentID, path string) (bool, error) {
	targets, caption, err := de.router.Route(msisdn, msg.Text)
	if err != nil {
		return false, fmt.Errorf("failed to route message %d: %w", msg.ID, err)
	}
	if len(targets) == 0 {
		de.logger.WithFields(logrus.Fields{
			"msisdn": privacy.MaskMsisdn(msisdn),
			"id":     msg.ID,
		}).Debug("No active subscriptions, skipping delivery")
		return false, nil
	}

	payload, err := de.buildPayload(path, caption)
	if err != nil {
		return false, fmt.Errorf("failed to build payload for message %d: %w", msg.ID, err)
	}

	idemKey := fmt.Sprintf("msg:%d:att:%s", msg.ID, attachmentID)

	allOK := true
	for _, target := range targets {
		outcome := de.deliverToTarget(ctx, target, msisdn, payload, idemKey)
		if outcome != OutcomeSuccess {
			allOK = false
		}
	}
	return allOK, nil
}

// deliverToTarget runs the retry schedule against one subscription.
func (de *DeliveryEngine) deliverToTarget(ctx context.Context, target models.Subscription, msisdn string, payload models.WebhookPayload, idemKey string) Outcome {
	spanCtx, span := tracing.StartSpan(ctx, "webhook_delivery",
		attribute.String("subscription", target.Name),
		attribute.String("idempotency_key", idemKey),
	)
	defer span.End()

	log := de.logger.WithFields(logrus.Fields{
		"msisdn": privacy.MaskMsisdn(msisdn),
		"name":   target.Name,
		"token":  privacy.MaskToken(target.BearerToken),
	})

	for attempt := 0; attempt < de.schedule.Attempts(); attempt++ {
		if !de.schedule.Wait(spanCtx, attempt) {
			return OutcomeFailed
		}

		status, err := de.client.Post(spanCtx, target.WebhookURL, payload, target.BearerToken, idemKey)
		if err != nil {
			log.WithError(err).WithField("attempt", attempt).Debug("Webhook POST transport failure")
			tracing.RecordError(spanCtx, err)
			continue
		}

		switch {
		case status >= 200 && status < 300:
			log.WithField("status", status).Info("Webhook delivered")
			return OutcomeSuccess
		case status == 409:
			// Receiver already has this message; idempotent no-op.
			log.Debug("Webhook reported duplicate, treating as delivered")
			return OutcomeSuccess
		case status == 401 || status == 403:
			log.WithField("status", status).Info("Webhook auth failure, deactivating subscription")
			if err := de.registry.Deactivate(msisdn, target.Name); err != nil {
				log.WithError(err).Warn("Failed to deactivate subscription after auth failure")
			}
			return OutcomeAuthRevoked
		default:
			log.WithFields(logrus.Fields{
				"status":  status,
				"attempt": attempt,
			}).Debug("Webhook POST failed, will retry")
		}
	}

	log.Warn("Webhook delivery failed after all retry attempts")
	return OutcomeFailed
}

// buildPayload assembles the webhook body for the configured forward mode.
func (de *DeliveryEngine) buildPayload(path, caption string) (models.WebhookPayload, error) {
	payload := models.WebhookPayload{
		Filename: filepath.Base(path),
		Mimetype: media.MimeType(path),
		Caption:  caption,
	}

	if de.mode == models.ForwardModeFileURL {
		payload.URL = "file://" + path
		return payload, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return models.WebhookPayload{}, fmt.Errorf("failed to read media file: %w", err)
	}
	payload.DataB64 = base64.StdEncoding.EncodeToString(raw)
	return payload, nil
}
