package models

import "gorm.io/gorm"

// Course represents a learning course. Price is stored in the smallest
// currency unit; 0 means the course is free.
type Course struct {
	gorm.Model
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Author       string  `json:"author"`
	Price        uint    `json:"price" gorm:"default:0"`
	Currency     string  `json:"currency" gorm:"default:'INR'"`
	Status       string  `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	ThumbnailURL string  `json:"thumbnail_url"`
	IsPublished  bool    `json:"is_published" gorm:"default:false"`
	RatingAvg    float64 `json:"rating_avg" gorm:"default:0"` // Maintained by the rating aggregator
	RatingCount  int64   `json:"rating_count" gorm:"default:0"`
	IsDeleted    bool    `gorm:"default:false"`
}

// IsFree reports whether the course requires no payment for access.
func (c *Course) IsFree() bool {
	return c.Price == 0
}

// Lesson is a single video lesson within a course.
type Lesson struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	VideoURL    string `json:"video_url"`
	Duration    int64  `json:"duration" gorm:"default:0"` // seconds
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}
