package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetPair writes both token cookies. Without remember they are session
// cookies and vanish with the browser.
func (m *Manager) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time, remember bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	aMax, rMax := 0, 0
	if remember {
		aMax = maxAgeFrom(aexp)
		rMax = maxAgeFrom(rexp)
	}
	c.SetCookie(AccessCookie, access, aMax, "/", m.Domain, m.Secure, true)
	if refresh != "" {
		c.SetCookie(RefreshCookie, refresh, rMax, "/", m.Domain, m.Secure, true)
	}
}

// SetAccess rewrites only the access cookie (refresh flow).
func (m *Manager) SetAccess(c *gin.Context, access string, aexp time.Time, persistent bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	aMax := 0
	if persistent {
		aMax = maxAgeFrom(aexp)
	}
	c.SetCookie(AccessCookie, access, aMax, "/", m.Domain, m.Secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 1 {
		// 0 would turn into a session cookie
		return 1
	}
	return sec
}
