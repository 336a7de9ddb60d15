package repository

import (
	"fmt"

	"tunedrop/model"

	"gorm.io/gorm"
)

// EmailLogRepository is the append-only store for rendered emails. Every
// dispatch attempt is recorded, successful or not.
type EmailLogRepository interface {
	Append(entry *model.EmailLog) error
	GetBySubmission(submissionID string) ([]*model.EmailLog, error)
	GetRecent(limit int) ([]*model.EmailLog, error)
}

type gormEmailLogRepository struct {
	db *gorm.DB
}

// NewGormEmailLogRepository creates an EmailLogRepository on the GORM connection.
func NewGormEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &gormEmailLogRepository{db: db}
}

// Append writes one audit record. There is no update or delete path.
func (r *gormEmailLogRepository) Append(entry *model.EmailLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append email log: %w", err)
	}
	return nil
}

// GetBySubmission lists all email attempts for one submission, oldest first.
func (r *gormEmailLogRepository) GetBySubmission(submissionID string) ([]*model.EmailLog, error) {
	var entries []*model.EmailLog
	err := r.db.Where("submission_id = ?", submissionID).Order("created_at ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query email logs for submission %s: %w", submissionID, err)
	}
	return entries, nil
}

// GetRecent lists the latest email attempts platform-wide.
func (r *gormEmailLogRepository) GetRecent(limit int) ([]*model.EmailLog, error) {
	var entries []*model.EmailLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent email logs: %w", err)
	}
	return entries, nil
}
