package templates

import (
	"strings"
	"time"
)

// Brand is the sender identity printed in every message.
type Brand struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	SupportURL     string
}

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name  string
	Email string

	AppName        string
	CompanyName    string
	CompanyAddress string
	SupportURL     string

	// Action URLs
	ResetURL  string
	VerifyURL string

	ExpiresAt     time.Time
	ExpiresAtText string
	IP            string
	UserAgent     string
}

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

func NewBaseEmailData(b Brand, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           strings.TrimSpace(name),
		Email:          email,
		AppName:        b.AppName,
		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		SupportURL:     b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewForgotPasswordData(b Brand, name, email, resetURL string, opts ...Option) EmailData {
	d := NewBaseEmailData(b, name, email, opts...)
	d.ResetURL = resetURL
	return d
}

func NewVerifyEmailData(b Brand, name, email, verifyURL string, opts ...Option) EmailData {
	d := NewBaseEmailData(b, name, email, opts...)
	d.VerifyURL = verifyURL
	return d
}

// LinkWithToken appends token as the "token" query parameter of base.
func LinkWithToken(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + token
}
