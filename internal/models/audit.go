package models

import "time"

// Audit actions recorded in audit_logs.
const (
	AuditActionLogin                = "LOGIN"
	AuditActionLogout               = "LOGOUT"
	AuditActionTokenRefresh         = "TOKEN_REFRESH"
	AuditActionInquiryPromote       = "INQUIRY_PROMOTE"
	AuditActionRegistrationFinalize = "REGISTRATION_FINALIZE"
	AuditActionDocumentUpload       = "DOCUMENT_UPLOAD"
	AuditActionStageTransition      = "ENROLLMENT_TRANSITION"
	AuditActionNoteAppend           = "NOTE_APPEND"
	AuditActionRegistrationSave     = "REGISTRATION_SAVE"
	AuditActionExport               = "ENROLLMENT_EXPORT"
	AuditActionUserCreate           = "USER_CREATE"
	AuditActionUserUpdate           = "USER_UPDATE"
	AuditActionUserDeactivate       = "USER_DEACTIVATE"
)

// AuditLog is a security-relevant request record, separate from enrollment notes.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
