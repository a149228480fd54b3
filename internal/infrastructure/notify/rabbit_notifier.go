package notify

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/pkg/mailer"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// RabbitNotifier hands rendered notifications to the email worker through RabbitMQ.
// Publishing is retried with exponential backoff; delivery happens in the worker.
type RabbitNotifier struct {
	pub        Publisher
	logger     *logrus.Logger
	maxRetries uint64
	base       time.Duration
}

func NewRabbitNotifier(pub Publisher, logger *logrus.Logger, maxRetries int, base time.Duration) *RabbitNotifier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &RabbitNotifier{pub: pub, logger: logger, maxRetries: uint64(maxRetries), base: base}
}

func (n *RabbitNotifier) Notify(ctx context.Context, msg application.Notification) error {
	job := mailer.EmailJob{
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
		Kind:    msg.Kind,
		Ref:     msg.Ref,
	}

	attempt := 0
	b := retry.WithMaxRetries(n.maxRetries, retry.NewExponential(n.base))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := n.pub.PublishJSON(ctx, job); err != nil {
			if n.logger != nil {
				n.logger.WithError(err).WithFields(logrus.Fields{
					"kind":    msg.Kind,
					"ref":     msg.Ref,
					"attempt": attempt,
				}).Warn("publish email job failed")
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}

var _ application.Notifier = (*RabbitNotifier)(nil)
