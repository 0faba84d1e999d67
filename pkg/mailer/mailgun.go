package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string

	client  *mg.MailgunImpl
	Timeout time.Duration
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{
		Domain:  domain,
		APIKey:  apiKey,
		Sender:  sender,
		client:  mg.NewMailgun(domain, apiKey),
		Timeout: 10 * time.Second,
	}
}

// SetAPIBase points the client at another endpoint (EU region, tests).
func (m *Mailgun) SetAPIBase(url string) {
	m.client.SetAPIBase(url)
}

// Send delivers a plain-text message.
func (m *Mailgun) Send(ctx context.Context, to, subject, body string) error {
	return m.Deliver(ctx, EmailJob{To: to, Subject: subject, Text: body})
}

// Deliver sends a queued job. HTML is attached when present.
func (m *Mailgun) Deliver(ctx context.Context, job EmailJob) error {
	msg := m.client.NewMessage(m.Sender, job.Subject, job.Text, job.To)
	if job.HTML != "" {
		msg.SetHtml(job.HTML)
	}
	c, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
