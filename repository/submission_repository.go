package repository

import (
	"database/sql"
	"fmt"
	"time"

	"tunedrop/model"
)

// SubmissionRepository defines the interface for submission and track data
// operations.
type SubmissionRepository interface {
	CreateSubmission(sub *model.Submission) error
	GetSubmissionByID(id string) (*model.Submission, error)
	GetSubmissionsByArtist(artistID int64, status string, limit int) ([]*model.Submission, error)
	GetAllSubmissions(status string, limit int) ([]*model.Submission, error)
	AddTrack(track *model.Track) error
	GetTracksBySubmission(submissionID string) ([]*model.Track, error)
	UpdateReview(id string, status string, score *int, reviewNotes, adminNotes *string, reviewedBy int64) error
	UpdateEmailState(id string, sent bool, messageID, method string) error
	DeleteSubmission(id string) error
}

// mysqlSubmissionRepository implements SubmissionRepository for MySQL.
type mysqlSubmissionRepository struct {
	db *sql.DB
}

// NewMySQLSubmissionRepository creates a new mysqlSubmissionRepository.
func NewMySQLSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &mysqlSubmissionRepository{db: db}
}

const submissionColumns = `id, artist_id, artist_name, artist_email, title, description, status,
	total_tracks, review_score, review_notes, admin_notes, reviewed_by,
	email_sent, email_sent_at, email_message_id, email_method, created_at, updated_at`

// CreateSubmission inserts a new submission row.
func (r *mysqlSubmissionRepository) CreateSubmission(sub *model.Submission) error {
	query := `INSERT INTO submissions (id, artist_id, artist_name, artist_email, title, description, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare create submission statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(sub.ID, sub.ArtistID, sub.ArtistName, sub.ArtistEmail,
		sub.Title, sub.Description, sub.Status)
	if err != nil {
		return fmt.Errorf("failed to execute create submission statement: %w", err)
	}
	return nil
}

// GetSubmissionByID retrieves a submission with its tracks.
func (r *mysqlSubmissionRepository) GetSubmissionByID(id string) (*model.Submission, error) {
	row := r.db.QueryRow("SELECT "+submissionColumns+" FROM submissions WHERE id = ?", id)
	sub, err := scanSubmission(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // submission not found
		}
		return nil, fmt.Errorf("failed to scan submission %s: %w", id, err)
	}

	tracks, err := r.GetTracksBySubmission(id)
	if err != nil {
		return nil, err
	}
	sub.Tracks = tracks
	return sub, nil
}

// GetSubmissionsByArtist lists an artist's submissions, newest first,
// optionally filtered by status.
func (r *mysqlSubmissionRepository) GetSubmissionsByArtist(artistID int64, status string, limit int) ([]*model.Submission, error) {
	query := "SELECT " + submissionColumns + " FROM submissions WHERE artist_id = ?"
	args := []interface{}{artistID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	return r.querySubmissions(query, args...)
}

// GetAllSubmissions lists submissions platform-wide, newest first, optionally
// filtered by status. Admin only at the service layer.
func (r *mysqlSubmissionRepository) GetAllSubmissions(status string, limit int) ([]*model.Submission, error) {
	query := "SELECT " + submissionColumns + " FROM submissions"
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	return r.querySubmissions(query, args...)
}

func (r *mysqlSubmissionRepository) querySubmissions(query string, args ...interface{}) ([]*model.Submission, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]*model.Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		subs = append(subs, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during submission rows iteration: %w", err)
	}

	for _, sub := range subs {
		tracks, err := r.GetTracksBySubmission(sub.ID)
		if err != nil {
			return nil, err
		}
		sub.Tracks = tracks
	}
	return subs, nil
}

// AddTrack appends a track to its submission. The insert and the counter
// bump run in one transaction; there is no read-modify-write of a track
// list, so concurrent uploads cannot lose each other's rows.
func (r *mysqlSubmissionRepository) AddTrack(track *model.Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin add track transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO tracks (id, submission_id, title, genre, bpm, track_key, description,
		filename, storage_path, download_url, file_size, mime_type, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.Exec(query, track.ID, track.SubmissionID, track.Title, track.Genre,
		track.BPM, track.Key, track.Description, track.Filename, track.StoragePath,
		track.DownloadURL, track.FileSize, track.MimeType, track.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert track %s: %w", track.ID, err)
	}

	_, err = tx.Exec(`UPDATE submissions SET total_tracks = total_tracks + 1, updated_at = ? WHERE id = ?`,
		time.Now(), track.SubmissionID)
	if err != nil {
		return fmt.Errorf("failed to bump track counter for submission %s: %w", track.SubmissionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit add track transaction: %w", err)
	}
	return nil
}

// GetTracksBySubmission lists a submission's tracks in upload order.
func (r *mysqlSubmissionRepository) GetTracksBySubmission(submissionID string) ([]*model.Track, error) {
	query := `SELECT id, submission_id, title, genre, bpm, track_key, description,
		filename, storage_path, download_url, file_size, mime_type, uploaded_at
		FROM tracks WHERE submission_id = ? ORDER BY uploaded_at ASC, id ASC`
	rows, err := r.db.Query(query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for submission %s: %w", submissionID, err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track := &model.Track{}
		var bpm sql.NullInt64
		var key, description, mimeType sql.NullString
		err := rows.Scan(&track.ID, &track.SubmissionID, &track.Title, &track.Genre,
			&bpm, &key, &description, &track.Filename, &track.StoragePath,
			&track.DownloadURL, &track.FileSize, &mimeType, &track.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		if bpm.Valid {
			v := int(bpm.Int64)
			track.BPM = &v
		}
		track.Key = key.String
		track.Description = description.String
		track.MimeType = mimeType.String
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// UpdateReview applies a review decision in a single UPDATE so the status,
// score, notes and reviewer never partially apply.
func (r *mysqlSubmissionRepository) UpdateReview(id string, status string, score *int, reviewNotes, adminNotes *string, reviewedBy int64) error {
	sets := "status = ?, reviewed_by = ?, updated_at = ?"
	args := []interface{}{status, reviewedBy, time.Now()}

	if score != nil {
		sets += ", review_score = ?"
		args = append(args, *score)
	}
	if reviewNotes != nil {
		sets += ", review_notes = ?"
		args = append(args, *reviewNotes)
	}
	if adminNotes != nil {
		sets += ", admin_notes = ?"
		args = append(args, *adminNotes)
	}

	args = append(args, id)
	res, err := r.db.Exec("UPDATE submissions SET "+sets+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update review for submission %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateEmailState records the outcome of a notification attempt.
func (r *mysqlSubmissionRepository) UpdateEmailState(id string, sent bool, messageID, method string) error {
	var sentAt interface{}
	if sent {
		sentAt = time.Now()
	}
	_, err := r.db.Exec(`UPDATE submissions SET email_sent = ?, email_sent_at = ?, email_message_id = ?, email_method = ? WHERE id = ?`,
		sent, sentAt, messageID, method, id)
	if err != nil {
		return fmt.Errorf("failed to update email state for submission %s: %w", id, err)
	}
	return nil
}

// DeleteSubmission removes a submission and its track rows.
func (r *mysqlSubmissionRepository) DeleteSubmission(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete submission transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tracks WHERE submission_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete tracks for submission %s: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM submissions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete submission %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete submission transaction: %w", err)
	}
	return nil
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	sub := &model.Submission{}
	var description, reviewNotes, adminNotes, emailMessageID, emailMethod sql.NullString
	var reviewScore sql.NullInt64
	var reviewedBy sql.NullInt64
	var emailSentAt sql.NullTime

	err := row.Scan(&sub.ID, &sub.ArtistID, &sub.ArtistName, &sub.ArtistEmail,
		&sub.Title, &description, &sub.Status, &sub.TotalTracks,
		&reviewScore, &reviewNotes, &adminNotes, &reviewedBy,
		&sub.EmailSent, &emailSentAt, &emailMessageID, &emailMethod,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sub.Description = description.String
	sub.ReviewNotes = reviewNotes.String
	sub.AdminNotes = adminNotes.String
	sub.EmailMessageID = emailMessageID.String
	sub.EmailMethod = emailMethod.String
	if reviewScore.Valid {
		v := int(reviewScore.Int64)
		sub.ReviewScore = &v
	}
	if reviewedBy.Valid {
		sub.ReviewedBy = reviewedBy.Int64
	}
	if emailSentAt.Valid {
		t := emailSentAt.Time
		sub.EmailSentAt = &t
	}
	return sub, nil
}
