// Package submission implements the submission lifecycle: creation, track
// upload, listing, deletion and the admin review transition.
package submission

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"tunedrop/core/review"
	"tunedrop/logger"
	"tunedrop/model"
	"tunedrop/repository"
)

// BlobStore is the object storage the service writes track audio to.
type BlobStore interface {
	Put(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// Notifier receives lifecycle events after the database write has committed.
// Implementations must not block; delivery failures never surface here.
type Notifier interface {
	Created(sub *model.Submission)
	StatusChanged(sub *model.Submission)
}

// allowedExtensions is the audio upload allow-list.
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// Service carries the submission domain operations.
type Service struct {
	subs         repository.SubmissionRepository
	users        repository.UserRepository
	blobs        BlobStore
	notifier     Notifier
	maxTrackSize int64
}

// NewService wires a submission service.
func NewService(subs repository.SubmissionRepository, users repository.UserRepository, blobs BlobStore, notifier Notifier, maxTrackSize int64) *Service {
	return &Service{
		subs:         subs,
		users:        users,
		blobs:        blobs,
		notifier:     notifier,
		maxTrackSize: maxTrackSize,
	}
}

// Create opens a new pending submission for the given artist.
func (s *Service) Create(artistID int64, req *model.CreateSubmissionRequest) (*model.Submission, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	artist, err := s.users.GetUserByID(artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load artist %d: %w", artistID, err)
	}
	if artist == nil {
		return nil, ErrForbidden
	}

	now := time.Now()
	sub := &model.Submission{
		ID:          uuid.New().String(),
		ArtistID:    artistID,
		ArtistName:  artist.ArtistName,
		ArtistEmail: artist.Email,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      model.StatusPending,
		Tracks:      []*model.Track{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.subs.CreateSubmission(sub); err != nil {
		return nil, err
	}

	logger.Info("Submission created",
		logger.String("submissionId", sub.ID),
		logger.Int64("artistId", artistID),
		logger.String("title", sub.Title))

	if s.notifier != nil {
		s.notifier.Created(sub)
	}
	return sub, nil
}

// Get returns a submission if the requester owns it or is an admin. The
// owner receives a view without internal-only review fields.
func (s *Service) Get(id string, requester *model.User) (*model.Submission, error) {
	sub, err := s.subs.GetSubmissionByID(id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}
	if requester.IsAdmin() {
		return sub, nil
	}
	if sub.ArtistID != requester.ID {
		return nil, ErrForbidden
	}
	return sub.ArtistView(), nil
}

// ListMine lists the artist's own submissions.
func (s *Service) ListMine(artistID int64, status string, limit int) (*model.SubmissionList, error) {
	limit = normalizeLimit(limit, 10)
	subs, err := s.subs.GetSubmissionsByArtist(artistID, status, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*model.Submission, len(subs))
	for i, sub := range subs {
		views[i] = sub.ArtistView()
	}
	return &model.SubmissionList{
		Submissions: views,
		Total:       len(views),
		HasMore:     len(views) == limit,
	}, nil
}

// ListAll lists submissions platform-wide. The handler gates this to admins.
func (s *Service) ListAll(status string, limit int) (*model.SubmissionList, error) {
	limit = normalizeLimit(limit, 20)
	subs, err := s.subs.GetAllSubmissions(status, limit)
	if err != nil {
		return nil, err
	}
	return &model.SubmissionList{
		Submissions: subs,
		Total:       len(subs),
		HasMore:     len(subs) == limit,
	}, nil
}

// UploadInput describes one incoming track file plus its metadata.
type UploadInput struct {
	SubmissionID string
	ArtistID     int64
	Filename     string
	Size         int64
	MimeType     string
	Reader       io.Reader
	Title        string
	Genre        string
	BPM          *int
	Key          string
	Description  string
}

// UploadTrack validates the payload, writes the blob, then appends the track
// row. All validation happens before the blob write, so a rejected upload
// never leaves an object behind. The reverse failure (blob written, row
// insert failed) can orphan a blob; writes are at-least-once with no
// automatic cleanup.
func (s *Service) UploadTrack(ctx context.Context, in *UploadInput) (*model.Track, *model.Submission, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Genre) == "" {
		return nil, nil, ErrTrackFieldsRequired
	}
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !allowedExtensions[ext] {
		return nil, nil, ErrInvalidFileType
	}
	if in.Size > s.maxTrackSize {
		return nil, nil, ErrFileTooLarge
	}

	sub, err := s.subs.GetSubmissionByID(in.SubmissionID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, ErrNotFound
	}
	if sub.ArtistID != in.ArtistID {
		return nil, nil, ErrForbidden
	}

	now := time.Now()
	timestamp := now.UnixMilli()
	// The millisecond timestamp alone collides when two uploads land in the
	// same tick, so both the row id and the object key carry a random
	// suffix on top of it.
	entropy := uuid.New().String()[:8]
	safeName := unsafeFilenameChars.ReplaceAllString(in.Filename, "_")
	objectPath := fmt.Sprintf("%d/%s/%d_%s_%s", in.ArtistID, in.SubmissionID, timestamp, entropy, safeName)

	if err := s.blobs.Put(ctx, objectPath, in.Reader, in.Size, in.MimeType); err != nil {
		return nil, nil, fmt.Errorf("failed to store track file: %w", err)
	}

	track := &model.Track{
		ID:           fmt.Sprintf("track_%d_%s", timestamp, entropy),
		SubmissionID: in.SubmissionID,
		Title:        strings.TrimSpace(in.Title),
		Genre:        strings.TrimSpace(in.Genre),
		BPM:          in.BPM,
		Key:          in.Key,
		Description:  in.Description,
		Filename:     in.Filename,
		StoragePath:  objectPath,
		DownloadURL:  s.blobs.PublicURL(objectPath),
		FileSize:     in.Size,
		MimeType:     in.MimeType,
		UploadedAt:   now,
	}

	if err := s.subs.AddTrack(track); err != nil {
		// The blob already exists at objectPath with no referencing row.
		logger.Error("Track row insert failed after blob write, orphaned object remains",
			logger.String("objectPath", objectPath),
			logger.String("submissionId", in.SubmissionID),
			logger.ErrorField(err))
		return nil, nil, err
	}

	sub.TotalTracks++
	sub.UpdatedAt = now
	logger.Info("Track uploaded",
		logger.String("trackId", track.ID),
		logger.String("submissionId", in.SubmissionID),
		logger.Int64("size", in.Size),
		logger.String("genre", track.Genre))
	return track, sub, nil
}

// SetStatus applies an admin review decision. The state machine validates
// the transition; the repository applies it in a single UPDATE; the notifier
// is invoked only after the update has committed, and its outcome never
// affects the result.
func (s *Service) SetStatus(id string, req *model.UpdateStatusRequest, admin *model.User) (*model.Submission, error) {
	sub, err := s.subs.GetSubmissionByID(id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}

	if err := review.Validate(sub.Status, req.Status, req.ReviewScore); err != nil {
		return nil, err
	}

	if err := s.subs.UpdateReview(id, req.Status, req.ReviewScore, req.ReviewNotes, req.AdminNotes, admin.ID); err != nil {
		return nil, err
	}

	sub.Status = req.Status
	sub.ReviewedBy = admin.ID
	sub.UpdatedAt = time.Now()
	if req.ReviewScore != nil {
		sub.ReviewScore = req.ReviewScore
	}
	if req.ReviewNotes != nil {
		sub.ReviewNotes = *req.ReviewNotes
	}
	if req.AdminNotes != nil {
		sub.AdminNotes = *req.AdminNotes
	}

	logger.Info("Submission status updated",
		logger.String("submissionId", id),
		logger.String("status", sub.Status),
		logger.Int64("reviewedBy", admin.ID))

	if s.notifier != nil {
		s.notifier.StatusChanged(sub)
	}
	return sub, nil
}

// Delete removes a pending submission owned by the caller. Track blobs are
// removed best-effort first; a failed object delete is logged and does not
// block removal of the records.
func (s *Service) Delete(ctx context.Context, id string, artistID int64) error {
	sub, err := s.subs.GetSubmissionByID(id)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrNotFound
	}
	if sub.ArtistID != artistID {
		return ErrForbidden
	}
	if sub.Status != model.StatusPending {
		return ErrNotPending
	}

	for _, track := range sub.Tracks {
		if err := s.blobs.Remove(ctx, track.StoragePath); err != nil {
			logger.Warn("Failed to remove track object during submission delete",
				logger.String("objectPath", track.StoragePath),
				logger.String("submissionId", id),
				logger.ErrorField(err))
		}
	}

	if err := s.subs.DeleteSubmission(id); err != nil {
		return err
	}

	logger.Info("Submission deleted",
		logger.String("submissionId", id),
		logger.Int64("artistId", artistID))
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 100 {
		return 100
	}
	return limit
}
