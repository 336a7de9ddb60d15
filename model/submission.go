package model

import "time"

// Submission review statuses.
const (
	StatusPending  = "pending"
	StatusInReview = "in-review"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Submission bundles an artist's tracks for admin review.
type Submission struct {
	ID          string `json:"id"`
	ArtistID    int64  `json:"artistId"`
	ArtistName  string `json:"artistName"`
	ArtistEmail string `json:"artistEmail"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`

	Tracks      []*Track `json:"tracks"`
	TotalTracks int      `json:"totalTracks"`

	// Review fields, set by an admin on a status change. Score is required
	// when the submission moves to approved or rejected.
	ReviewScore *int   `json:"reviewScore"`
	ReviewNotes string `json:"reviewNotes"`
	AdminNotes  string `json:"adminNotes,omitempty"` // internal-only
	ReviewedBy  int64  `json:"reviewedBy,omitempty"`

	// Notification bookkeeping. Delivery is best-effort; a failed send leaves
	// EmailSent false without touching the review outcome.
	EmailSent      bool       `json:"emailSent"`
	EmailSentAt    *time.Time `json:"emailSentAt,omitempty"`
	EmailMessageID string     `json:"emailMessageId,omitempty"`
	EmailMethod    string     `json:"emailMethod,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Track is a single audio file belonging to exactly one submission.
type Track struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submissionId"`
	Title        string    `json:"title"`
	Genre        string    `json:"genre"`
	BPM          *int      `json:"bpm"`
	Key          string    `json:"key,omitempty"`
	Description  string    `json:"description,omitempty"`
	Filename     string    `json:"filename"`
	StoragePath  string    `json:"-"` // object key inside the bucket
	DownloadURL  string    `json:"downloadURL"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// CreateSubmissionRequest is the submission creation request body.
type CreateSubmissionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateStatusRequest is the admin review request body.
type UpdateStatusRequest struct {
	Status      string `json:"status"`
	ReviewScore *int   `json:"reviewScore"`
	ReviewNotes *string `json:"reviewNotes"`
	AdminNotes  *string `json:"adminNotes"`
}

// SubmissionList is the paging envelope for listing endpoints.
type SubmissionList struct {
	Submissions []*Submission `json:"submissions"`
	Total       int           `json:"total"`
	HasMore     bool          `json:"hasMore"`
}

// ArtistView strips internal-only review fields before a submission is
// returned to its owner.
func (s *Submission) ArtistView() *Submission {
	view := *s
	view.AdminNotes = ""
	view.ReviewedBy = 0
	return &view
}
