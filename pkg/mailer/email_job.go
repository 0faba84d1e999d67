package mailer

import (
	"errors"
	"net/mail"
	"strings"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// HTML is optional; Text is always set.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Validate rejects jobs the worker could never deliver, so they are dropped instead of requeued.
func (j EmailJob) Validate() error {
	if strings.TrimSpace(j.To) == "" {
		return errors.New("email job: missing recipient")
	}
	if _, err := mail.ParseAddress(j.To); err != nil {
		return errors.New("email job: invalid recipient")
	}
	if strings.TrimSpace(j.Subject) == "" {
		return errors.New("email job: missing subject")
	}
	if strings.TrimSpace(j.Text) == "" && strings.TrimSpace(j.HTML) == "" {
		return errors.New("email job: empty body")
	}
	return nil
}
