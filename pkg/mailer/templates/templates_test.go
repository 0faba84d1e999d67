package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brand = Brand{AppName: "Shop", CompanyName: "Shop Inc", SupportURL: "https://help.example.com"}

func TestRenderForgotPassword(t *testing.T) {
	exp := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	data := NewForgotPasswordData(brand, "Ada Lovelace", "ada@example.com",
		LinkWithToken("https://app.example.com/reset", "abc123"),
		WithExpiresAt(exp), WithIP("10.0.0.1"))

	subject, text, err := Render(ForgotPassword, data)
	require.NoError(t, err)
	assert.Equal(t, "Shop: reset your password", subject)
	assert.Contains(t, text, "Hi Ada Lovelace,")
	assert.Contains(t, text, "https://app.example.com/reset?token=abc123")
	assert.Contains(t, text, "01 March 2025, 10:30 UTC")
	assert.Contains(t, text, "Requested from 10.0.0.1.")
	assert.Contains(t, text, "https://help.example.com")
}

func TestRenderVerifyEmailDefaults(t *testing.T) {
	data := NewVerifyEmailData(Brand{}, "", "x@example.com", "https://v?x=1&token=t")
	subject, text, err := Render(VerifyEmail, data)
	require.NoError(t, err)
	assert.Equal(t, "Your account: verify your email address", subject)
	assert.Contains(t, text, "Hi there,")
	assert.Contains(t, text, "https://v?x=1&token=t")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("nope", EmailData{})
	assert.Error(t, err)
}

func TestLinkWithToken(t *testing.T) {
	assert.Equal(t, "https://a/b?token=t", LinkWithToken("https://a/b", "t"))
	assert.Equal(t, "https://a/b?x=1&token=t", LinkWithToken("https://a/b?x=1", "t"))
}
