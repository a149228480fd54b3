package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/pkg/helpers"
	"github.com/oksasatya/go-event-locator/pkg/mailer"
	mailtpl "github.com/oksasatya/go-event-locator/pkg/mailer/templates"
)

// Sender delivers one email. *mailer.Mailgun satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Result is what happened to one delivery.
type Result string

const (
	Sent     Result = "sent"
	Requeued Result = "requeued"
	Dropped  Result = "dropped"
)

var errMalformed = errors.New("malformed email job")

// EmailWorker consumes EmailJob messages and sends them.
// Malformed jobs are dropped, send failures are requeued.
type EmailWorker struct {
	sender      Sender
	logger      *logrus.Logger
	sendTimeout time.Duration
}

func NewEmailWorker(sender Sender, logger *logrus.Logger) *EmailWorker {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &EmailWorker{sender: sender, logger: logger, sendTimeout: 15 * time.Second}
}

// Run handles deliveries until msgs is closed or ctx is done.
func (w *EmailWorker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle processes a single delivery and settles it.
func (w *EmailWorker) Handle(ctx context.Context, d amqp.Delivery) Result {
	job, subject, text, html, err := prepare(d.Body)
	if err != nil {
		w.logger.WithError(err).Warn("dropping email job")
		_ = d.Nack(false, false)
		helpers.EmailJobsTotal.WithLabelValues(job.Kind, string(Dropped)).Inc()
		return Dropped
	}

	c, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		helpers.LogError(w.logger, "send failed, requeueing", err, logrus.Fields{"kind": job.Kind, "ref": job.Ref})
		_ = d.Nack(false, true)
		helpers.EmailJobsTotal.WithLabelValues(job.Kind, string(Requeued)).Inc()
		return Requeued
	}
	_ = d.Ack(false)
	w.logger.WithFields(logrus.Fields{"kind": job.Kind, "ref": job.Ref}).Info("email sent")
	helpers.EmailJobsTotal.WithLabelValues(job.Kind, string(Sent)).Inc()
	return Sent
}

// prepare decodes the job and resolves its final content.
func prepare(body []byte) (job mailer.EmailJob, subject, text, html string, err error) {
	if err = json.Unmarshal(body, &job); err != nil {
		return job, "", "", "", fmt.Errorf("%w: %v", errMalformed, err)
	}
	if job.To == "" {
		return job, "", "", "", fmt.Errorf("%w: no recipient", errMalformed)
	}
	if job.Rendered() {
		return job, job.Subject, job.Text, job.HTML, nil
	}
	if job.Template == "" {
		return job, "", "", "", fmt.Errorf("%w: no content", errMalformed)
	}
	subject, text, html, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return job, "", "", "", fmt.Errorf("%w: render %s: %v", errMalformed, job.Template, err)
	}
	return job, subject, text, html, nil
}
