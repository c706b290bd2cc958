package service

import (
	"strings"

	"satbridge/internal/privacy"

	"github.com/sirupsen/logrus"
)

// CommandInterpreter parses inbound text messages into subscription
// lifecycle actions. The text channel doubles as ordinary messaging traffic,
// so anything that is not a recognized command is ignored silently.
type CommandInterpreter struct {
	registry SubscriptionRegistry
	logger   *logrus.Logger
}

func NewCommandInterpreter(registry SubscriptionRegistry, logger *logrus.Logger) *CommandInterpreter {
	return &CommandInterpreter{registry: registry, logger: logger}
}

// HandleText processes one text message from a sender. Recognized forms:
//
//	sub <name> <code>  activate the named subscription if the code matches
//	unsub <name>       deactivate one subscription
//	unsub              deactivate all of the sender's subscriptions
func (ci *CommandInterpreter) HandleText(msisdn, text string) {
	parts := strings.Fields(strings.ToLower(text))
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "sub":
		if len(parts) < 3 {
			return
		}
		name, code := parts[1], parts[2]
		ok, err := ci.registry.Activate(msisdn, name, code)
		if err != nil {
			ci.logger.WithError(err).Warn("Failed to activate subscription")
			return
		}
		if ok {
			ci.logger.WithFields(logrus.Fields{
				"msisdn": privacy.MaskMsisdn(msisdn),
				"name":   name,
			}).Info("Subscription activated")
		} else {
			ci.logger.WithFields(logrus.Fields{
				"msisdn": privacy.MaskMsisdn(msisdn),
				"name":   name,
			}).Debug("Subscription verify failed")
		}

	case "unsub":
		if len(parts) >= 2 {
			name := parts[1]
			if err := ci.registry.Deactivate(msisdn, name); err != nil {
				ci.logger.WithError(err).Warn("Failed to deactivate subscription")
				return
			}
			ci.logger.WithFields(logrus.Fields{
				"msisdn": privacy.MaskMsisdn(msisdn),
				"name":   name,
			}).Info("Subscription deactivated")
		} else {
			if err := ci.registry.DeactivateAll(msisdn); err != nil {
				ci.logger.WithError(err).Warn("Failed to deactivate subscriptions")
				return
			}
			ci.logger.WithField("msisdn", privacy.MaskMsisdn(msisdn)).Info("All subscriptions deactivated")
		}
	}
}
