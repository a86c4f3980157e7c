package model

import "time"

// Audit actions recorded against files.
const (
	ActionUpload   = "upload"
	ActionDownload = "download"
	ActionShare    = "share"
	ActionView     = "view"
	ActionDelete   = "delete"
	ActionRevoke   = "revoke"
)

func ValidAction(action string) bool {
	switch action {
	case ActionUpload, ActionDownload, ActionShare, ActionView, ActionDelete, ActionRevoke:
		return true
	default:
		return false
	}
}

// AuditLog references but does not own its file and user rows.
type AuditLog struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Joined display fields, populated on reads only.
	UserName         string `json:"user_name,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
	FileOriginalName string `json:"file_original_name,omitempty"`
	FileMimeType     string `json:"file_mime_type,omitempty"`
}

type AuditListData struct {
	Logs  []AuditLog `json:"logs"`
	Total int        `json:"total"`
}
