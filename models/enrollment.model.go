package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment tracks a user's enrollment in a course with progress.
// One row per (user, course); watched lessons live in their own table so
// concurrent marks never overwrite each other.
type Enrollment struct {
	gorm.Model
	UserID              uint       `json:"user_id" gorm:"uniqueIndex:idx_user_course;not null"`
	CourseID            uint       `json:"course_id" gorm:"uniqueIndex:idx_user_course;not null"`
	EnrolledAt          time.Time  `json:"enrolled_at"`
	Progress            int        `json:"progress" gorm:"default:0"` // percent, 0-100
	CertificateEarned   bool       `json:"certificate_earned" gorm:"default:false"`
	CertificateEarnedAt *time.Time `json:"certificate_earned_at"`
	IsDeleted           bool       `gorm:"default:false"`
}

// WatchedLesson records that a user finished a lesson. Unique on
// (enrollment_id, lesson_id) so a repeated mark is a clean no-op.
type WatchedLesson struct {
	gorm.Model
	EnrollmentID uint `json:"enrollment_id" gorm:"uniqueIndex:idx_enrollment_lesson;not null"`
	LessonID     uint `json:"lesson_id" gorm:"uniqueIndex:idx_enrollment_lesson;not null"`
}

// Certificate represents an issued certificate for course completion
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"user_id" gorm:"index;not null"`
	CourseID          uint      `json:"course_id" gorm:"index;not null"`
	EnrollmentID      uint      `json:"enrollment_id" gorm:"index;not null"`
	CertificateNumber string    `json:"certificate_number" gorm:"unique"`
	IssuedAt          time.Time `json:"issued_at"`
	IsDeleted         bool      `gorm:"default:false"`
}
