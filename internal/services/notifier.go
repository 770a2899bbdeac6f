package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/platform/sendgrid"
	"github.com/yungbote/carepulse-backend/internal/platform/twilio"
)

type Notification struct {
	// To is a phone number or an email address.
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelEmail    = "email"
	channelLog      = "log"
)

type notifier struct {
	log          *logger.Logger
	sms          twilio.Client
	email        sendgrid.Client
	phoneChannel string
	metrics      *observability.Metrics
}

// NewNotifier routes email addresses to SendGrid and phone numbers to Twilio
// on phoneChannel ("whatsapp" or "sms"). A nil client for the chosen route
// degrades to logging the message.
func NewNotifier(baseLog *logger.Logger, sms twilio.Client, email sendgrid.Client, phoneChannel string, metrics *observability.Metrics) Notifier {
	phoneChannel = strings.ToLower(strings.TrimSpace(phoneChannel))
	if phoneChannel != ChannelSMS {
		phoneChannel = ChannelWhatsApp
	}
	return &notifier{
		log:          baseLog.With("service", "Notifier"),
		sms:          sms,
		email:        email,
		phoneChannel: phoneChannel,
		metrics:      metrics,
	}
}

func (n *notifier) Notify(ctx context.Context, msg Notification) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		n.log.Warn("Notification dropped: no recipient", "subject", msg.Subject)
		n.metrics.IncNotification(channelLog, "skipped")
		return nil
	}
	channel := n.route(to)
	var err error
	switch channel {
	case ChannelEmail:
		_, err = n.email.Send(ctx, sendgrid.SendEmailRequest{
			To:      []sendgrid.EmailAddress{{Email: to}},
			Subject: msg.Subject,
			Text:    msg.Body,
		})
	case ChannelWhatsApp:
		_, err = n.sms.SendWhatsApp(ctx, to, msg.Body)
	case ChannelSMS:
		_, err = n.sms.SendSMS(ctx, to, msg.Body)
	default:
		n.log.Info("Notification (no channel configured)", "contact", to, "subject", msg.Subject, "body", msg.Body)
		n.metrics.IncNotification(channelLog, "ok")
		return nil
	}
	if err != nil {
		n.metrics.IncNotification(channel, "error")
		return fmt.Errorf("notify via %s: %w", channel, err)
	}
	n.metrics.IncNotification(channel, "ok")
	return nil
}

func (n *notifier) route(to string) string {
	if strings.Contains(to, "@") {
		if n.email != nil {
			return ChannelEmail
		}
		return channelLog
	}
	if n.sms != nil {
		return n.phoneChannel
	}
	return channelLog
}
