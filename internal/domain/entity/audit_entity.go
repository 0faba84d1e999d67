package entity

import "time"

// AuditEvent records a security relevant action. UserID and Email are optional.
type AuditEvent struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Audit actions
const (
	AuditLoginSuccess        = "login_success"
	AuditLoginFailed         = "login_failed"
	AuditLoginDisabled       = "login_disabled"
	AuditRegister            = "register"
	AuditLogout              = "logout"
	AuditRefresh             = "refresh"
	AuditResetIssue          = "reset_init_issue"
	AuditResetUnknown        = "reset_init_unknown"
	AuditResetConfirm        = "reset_confirm"
	AuditResetConfirmInvalid = "reset_confirm_invalid"
	AuditVerifyIssue         = "verify_init_issue"
	AuditVerifyConfirm       = "verify_confirm"
	AuditProfileUpdated      = "profile_updated"
)
