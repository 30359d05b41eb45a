package models

import "time"

// SubmissionRecord stores the extracted text for one unique file content.
// Records are keyed by the content fingerprint and are never mutated or
// deleted; identical bytes uploaded again resolve to the existing record.
type SubmissionRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Fingerprint string    `gorm:"size:64;uniqueIndex;not null" json:"fingerprint"`
	Text        string    `gorm:"type:text" json:"text"`
	Filename    string    `gorm:"size:255" json:"filename"`
	Username    string    `gorm:"size:255;index" json:"username"`
	UserType    string    `gorm:"size:16;index" json:"user_type"`
	Homework    string    `gorm:"size:255;index" json:"homework"`
	BlobURL     string    `gorm:"size:512" json:"blob_url"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	// UserTypeTeacher marks an upload carrying the homework task description.
	UserTypeTeacher = "teacher"
	// UserTypeStudent marks an upload carrying a student answer.
	UserTypeStudent = "student"
)

// IsTask reports whether the record holds a teacher task description.
func (r SubmissionRecord) IsTask() bool {
	return r.UserType == UserTypeTeacher
}
