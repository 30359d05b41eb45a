package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/opengrade/opengrade-api/internal/models"
)

// SubmissionRepository defines data operations for submission records.
type SubmissionRepository interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (models.SubmissionRecord, error)
	FindTeacherTask(ctx context.Context, homework string) (models.SubmissionRecord, error)
	ListStudentEntries(ctx context.Context, homework, username string) ([]models.SubmissionRecord, error)
	Create(ctx context.Context, record *models.SubmissionRecord) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) FindByFingerprint(ctx context.Context, fingerprint string) (models.SubmissionRecord, error) {
	var record models.SubmissionRecord
	if err := r.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		First(&record).Error; err != nil {
		return models.SubmissionRecord{}, err
	}

	return record, nil
}

func (r *submissionRepository) FindTeacherTask(ctx context.Context, homework string) (models.SubmissionRecord, error) {
	var record models.SubmissionRecord
	if err := r.db.WithContext(ctx).
		Where("homework = ?", homework).
		Where("user_type = ?", models.UserTypeTeacher).
		Order("created_at ASC").
		First(&record).Error; err != nil {
		return models.SubmissionRecord{}, err
	}

	return record, nil
}

func (r *submissionRepository) ListStudentEntries(ctx context.Context, homework, username string) ([]models.SubmissionRecord, error) {
	var records []models.SubmissionRecord
	if err := r.db.WithContext(ctx).
		Where("homework = ?", homework).
		Where("user_type = ?", models.UserTypeStudent).
		Where("username = ?", username).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *submissionRepository) Create(ctx context.Context, record *models.SubmissionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
