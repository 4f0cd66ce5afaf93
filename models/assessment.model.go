package models

import (
	"time"

	"gorm.io/gorm"
)

// AssessmentQuestion is one question of a course's final assessment.
type AssessmentQuestion struct {
	gorm.Model
	CourseID     uint   `json:"course_id" gorm:"index;not null"`
	QuestionText string `json:"question_text"`
	OrderIndex   int    `json:"order_index" gorm:"default:0"`
	IsDeleted    bool   `gorm:"default:false"`
}

// AssessmentOption represents an option for an assessment question
type AssessmentOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}

// AssessmentAttempt is a student's graded submission. Attempts are
// append-only and never mutated after creation.
type AssessmentAttempt struct {
	gorm.Model
	UserID          uint      `json:"user_id" gorm:"index:idx_attempt_user_course;not null"`
	CourseID        uint      `json:"course_id" gorm:"index:idx_attempt_user_course;not null"`
	SelectedOptions string    `json:"selected_options"` // JSON array of selected option IDs per question
	Score           int       `json:"score"`            // percent, 0-100
	Passed          bool      `json:"passed" gorm:"default:false"`
	AttemptNumber   int       `json:"attempt_number" gorm:"default:1"`
	CompletedAt     time.Time `json:"completed_at"`
}
