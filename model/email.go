package model

import "time"

// Email kinds the dispatcher knows how to render.
const (
	EmailKindConfirmation = "confirmation"
	EmailKindApproval     = "approval"
	EmailKindRejection    = "rejection"
	EmailKindTest         = "test"
)

// Delivery methods, recorded per attempt.
const (
	EmailMethodSendGrid = "sendgrid"
	EmailMethodSMTP     = "smtp"
)

// EmailLog is an append-only audit record of every rendered email, written
// whether or not delivery succeeded.
type EmailLog struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Kind         string    `json:"kind" gorm:"size:32;index"`
	Recipient    string    `json:"recipient" gorm:"size:255"`
	SubmissionID string    `json:"submissionId" gorm:"size:36;index"`
	Subject      string    `json:"subject" gorm:"size:255"`
	Body         string    `json:"body" gorm:"type:longtext"`
	Method       string    `json:"method" gorm:"size:16"`
	MessageID    string    `json:"messageId" gorm:"size:255"`
	Success      bool      `json:"success"`
	SendError    string    `json:"sendError" gorm:"size:1024"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName keeps the table name stable regardless of GORM pluralization rules.
func (EmailLog) TableName() string {
	return "email_logs"
}

// SendResult reports the outcome of one dispatch attempt.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Method    string `json:"method,omitempty"`
	Error     string `json:"error,omitempty"`
}
