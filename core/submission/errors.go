package submission

import "errors"

// Sentinel errors mapped to HTTP statuses at the boundary.
var (
	ErrNotFound      = errors.New("submission not found")
	ErrForbidden     = errors.New("access denied")
	ErrTitleRequired = errors.New("submission title is required")
	ErrNotPending    = errors.New("cannot delete submission that is not pending")

	ErrTrackFieldsRequired = errors.New("track title and genre are required")
	ErrInvalidFileType     = errors.New("invalid file type, allowed types: .mp3, .wav, .flac, .m4a")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
)
