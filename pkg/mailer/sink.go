package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Publisher is the subset of helpers.RabbitPublisher the queue sink needs.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueSink hands messages to the email worker through RabbitMQ.
type QueueSink struct {
	Pub Publisher
}

func NewQueueSink(pub Publisher) *QueueSink { return &QueueSink{Pub: pub} }

func (s *QueueSink) Send(ctx context.Context, to, subject, body string) error {
	job := EmailJob{To: to, Subject: subject, Text: body}
	if err := job.Validate(); err != nil {
		return err
	}
	return s.Pub.PublishJSON(ctx, job)
}

// LogSink only records that a message would have been sent. Used when
// MAIL_SEND_ENABLED=false; bodies carry one-time links and are not logged.
type LogSink struct {
	Log logrus.FieldLogger
}

func NewLogSink(log logrus.FieldLogger) *LogSink { return &LogSink{Log: log} }

func (s *LogSink) Send(_ context.Context, to, subject, body string) error {
	s.Log.WithFields(logrus.Fields{
		"to":       to,
		"subject":  subject,
		"body_len": len(body),
	}).Info("mail sending disabled; message not delivered")
	return nil
}
