package models

import "gorm.io/gorm"

// Review is a learner's rating of a course. At most one live review per
// (user, course), enforced by a partial unique index over non-deleted
// rows so a deleted review does not block writing a fresh one.
type Review struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index:idx_review_user_course,unique,where:is_deleted = false;not null"`
	CourseID  uint   `json:"course_id" gorm:"index:idx_review_user_course,unique,where:is_deleted = false;not null"`
	Rating    int    `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Title     string `json:"title"`
	Comment   string `json:"comment" gorm:"type:text;default:''"`
	IsDeleted bool   `gorm:"default:false"`
}
