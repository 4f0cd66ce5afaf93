package rating

import (
	"errors"
	"lms/apperrors"
	"lms/database"
	"lms/models"
	"math"

	"gorm.io/gorm"
)

// Aggregator keeps each course's stored {average, count} summary equal to
// a live recomputation over its reviews. Every review mutation goes
// through here so the summary can never lag the review set.
type Aggregator struct {
	db                    *gorm.DB
	reviewProgressPercent int
}

func NewAggregator(db *gorm.DB, reviewProgressPercent int) *Aggregator {
	return &Aggregator{db: db, reviewProgressPercent: reviewProgressPercent}
}

// Summary is a course's derived rating.
type Summary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Eligibility is CanReview's verdict.
type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Recompute scans the course's live reviews and returns the fresh
// summary. Average is rounded to one decimal; an empty review set yields
// {0, 0}. This is the single source of truth for course ratings.
func Recompute(tx *gorm.DB, courseID uint) (*Summary, error) {
	type row struct {
		Count int64
		Sum   int64
	}

	var r row
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) as count, COALESCE(SUM(rating), 0) as sum").
		Where("course_id = ? AND is_deleted = false", courseID).
		Scan(&r).Error
	if err != nil {
		return nil, err
	}

	summary := &Summary{Count: r.Count}
	if r.Count > 0 {
		summary.Average = math.Round(float64(r.Sum)/float64(r.Count)*10) / 10
	}

	return summary, nil
}

// CreateReview writes a new review and synchronously refreshes the
// course summary in the same transaction.
func (a *Aggregator) CreateReview(userID, courseID uint, ratingValue int, title, comment string) (*models.Review, error) {
	if eligibility, err := a.CanReview(userID, courseID); err != nil {
		return nil, err
	} else if !eligibility.Allowed {
		switch eligibility.Reason {
		case ReasonAlreadyReviewed:
			return nil, apperrors.ErrAlreadyReviewed
		case ReasonNotEnrolled:
			return nil, apperrors.ErrNotEnrolled
		default:
			return nil, apperrors.ErrCourseNotCompleted
		}
	}

	review := models.Review{
		UserID:   userID,
		CourseID: courseID,
		Rating:   ratingValue,
		Title:    title,
		Comment:  comment,
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		// The course row lock serializes submissions for the course, so the
		// eligibility read above cannot be stale by insert time. Recheck
		// under the lock; the partial unique index backs this up.
		var course models.Course
		if err := database.LockForUpdate(tx).First(&course, courseID).Error; err != nil {
			return err
		}

		var existing models.Review
		err := tx.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).
			First(&existing).Error
		if err == nil {
			return apperrors.ErrAlreadyReviewed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return refreshCourseSummary(tx, courseID)
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// UpdateReview edits the caller's own review and refreshes the summary.
func (a *Aggregator) UpdateReview(userID, reviewID uint, ratingValue int, title, comment string) (*models.Review, error) {
	var review models.Review
	err := a.db.Where("id = ? AND user_id = ? AND is_deleted = false", reviewID, userID).First(&review).Error
	if err != nil {
		return nil, apperrors.ErrReviewNotFound
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"rating":  ratingValue,
			"title":   title,
			"comment": comment,
		}
		if err := tx.Model(&review).Updates(updates).Error; err != nil {
			return err
		}
		return refreshCourseSummary(tx, review.CourseID)
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// DeleteReview soft-deletes the caller's own review and refreshes the
// summary, including back to {0, 0} when it was the last one.
func (a *Aggregator) DeleteReview(userID, reviewID uint) error {
	var review models.Review
	err := a.db.Where("id = ? AND user_id = ? AND is_deleted = false", reviewID, userID).First(&review).Error
	if err != nil {
		return apperrors.ErrReviewNotFound
	}

	return a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&review).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return refreshCourseSummary(tx, review.CourseID)
	})
}

// Review eligibility reasons
const (
	ReasonAlreadyReviewed    = "ALREADY_REVIEWED"
	ReasonNotEnrolled        = "NOT_ENROLLED"
	ReasonCourseNotCompleted = "COURSE_NOT_COMPLETED"
)

// CanReview checks whether the user may review the course: enrolled, not
// yet reviewed, and far enough through the content. The progress bar for
// reviewing is lower than the completion gate's.
func (a *Aggregator) CanReview(userID, courseID uint) (*Eligibility, error) {
	var course models.Course
	if err := a.db.Where("id = ? AND is_deleted = false", courseID).First(&course).Error; err != nil {
		return nil, apperrors.ErrCourseNotFound
	}

	var existing models.Review
	err := a.db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).First(&existing).Error
	if err == nil {
		return &Eligibility{Allowed: false, Reason: ReasonAlreadyReviewed}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var enrollment models.Enrollment
	err = a.db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Eligibility{Allowed: false, Reason: ReasonNotEnrolled}, nil
		}
		return nil, err
	}

	if enrollment.Progress < a.reviewProgressPercent {
		return &Eligibility{Allowed: false, Reason: ReasonCourseNotCompleted}, nil
	}

	return &Eligibility{Allowed: true}, nil
}

// ListForCourse returns the course's live reviews, newest first.
func (a *Aggregator) ListForCourse(courseID uint, page, limit int) ([]models.Review, int64, error) {
	query := a.db.Model(&models.Review{}).Where("course_id = ? AND is_deleted = false", courseID)

	var total int64
	query.Count(&total)

	var reviews []models.Review
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// refreshCourseSummary recomputes and stores the summary with the course
// row locked, so interleaved review writes cannot publish a stale value.
func refreshCourseSummary(tx *gorm.DB, courseID uint) error {
	var course models.Course
	if err := database.LockForUpdate(tx).First(&course, courseID).Error; err != nil {
		return err
	}

	summary, err := Recompute(tx, courseID)
	if err != nil {
		return err
	}

	return tx.Model(&models.Course{}).Where("id = ?", courseID).
		Updates(map[string]interface{}{
			"rating_avg":   summary.Average,
			"rating_count": summary.Count,
		}).Error
}
