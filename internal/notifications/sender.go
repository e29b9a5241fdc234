package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const sendTimeout = 10 * time.Second

// Sender delivers a message to the notification service.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type publisher interface {
	PublishJSON(ctx context.Context, key string, payload any, headers map[string]string) error
}

// KafkaSender publishes messages for the mail worker to render and deliver.
type KafkaSender struct {
	producer publisher
}

func NewKafkaSender(producer publisher) (*KafkaSender, error) {
	if producer == nil {
		return nil, errors.New("kafka producer required")
	}
	return &KafkaSender{producer: producer}, nil
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	return s.producer.PublishJSON(ctx, msg.Key, msg, map[string]string{"kind": msg.Kind})
}

// LogSender only logs; used when no transport is configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"kind":    msg.Kind,
		"to":      msg.To,
		"subject": msg.Subject,
	}), "notification not dispatched: no transport")
	return nil
}

// Notifier sends confirmations without ever failing the caller.
type Notifier struct {
	sender Sender
	from   string
	logg   *logger.Logger
}

func NewNotifier(sender Sender, from string, logg *logger.Logger) *Notifier {
	if logg == nil {
		logg = logger.Nop()
	}
	if sender == nil {
		sender = NewLogSender(logg)
	}
	return &Notifier{sender: sender, from: from, logg: logg}
}

// OrderConfirmed sends the confirmation email for a paid order.
func (n *Notifier) OrderConfirmed(ctx context.Context, order *models.Order) {
	if n == nil || order == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	ctx = n.logg.WithOrderID(ctx, order.ID.String())
	if err := n.sender.Send(ctx, ComposeOrderConfirmation(order, n.from)); err != nil {
		n.logg.Error(ctx, "order confirmation not sent", err)
		return
	}
	n.logg.Info(ctx, "order confirmation sent")
}
