package enrollment

import (
	"errors"
	"lms/apperrors"
	"lms/database"
	"lms/models"
	"math"
	"time"

	"gorm.io/gorm"
)

// Store owns per-user-per-course enrollment records and their progress.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Progress is the read projection of one enrollment's advancement.
type Progress struct {
	ProgressPercent  int    `json:"progressPercent"`
	WatchedLessonIDs []uint `json:"watchedLessonIds"`
}

// Enroll creates the enrollment for (user, course) or returns the
// existing one. Safe to call repeatedly.
func (s *Store) Enroll(userID, courseID uint) (*models.Enrollment, error) {
	var course models.Course
	if err := s.db.Where("id = ? AND is_deleted = false AND status = ?", courseID, "ACTIVE").First(&course).Error; err != nil {
		return nil, apperrors.ErrCourseNotFound
	}

	var enrollment models.Enrollment
	err := s.db.Where(models.Enrollment{UserID: userID, CourseID: courseID}).
		Attrs(models.Enrollment{EnrolledAt: time.Now()}).
		FirstOrCreate(&enrollment).Error
	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// MarkLessonWatched adds one lesson to the watched set and recomputes the
// progress percent against the course's current published lessons. The
// whole read-modify-write runs in a transaction with the enrollment row
// locked, so two lessons marked concurrently are both kept.
//
// Marking an unknown lesson, or one already watched, is a silent no-op.
func (s *Store) MarkLessonWatched(userID, courseID, lessonID uint) (*Progress, error) {
	var progress *Progress

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		err := database.LockForUpdate(tx).
			Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).
			First(&enrollment).Error
		if err != nil {
			return apperrors.ErrNotEnrolled
		}

		// Only lessons that currently belong to the course count.
		var lesson models.Lesson
		validLesson := tx.Where("id = ? AND course_id = ? AND is_deleted = false AND is_published = true",
			lessonID, courseID).First(&lesson).Error == nil

		if validLesson {
			watched := models.WatchedLesson{EnrollmentID: enrollment.ID, LessonID: lessonID}
			err = tx.Where(watched).FirstOrCreate(&watched).Error
			if err != nil {
				return err
			}
		}

		percent, watchedIDs, err := computeProgress(tx, &enrollment)
		if err != nil {
			return err
		}

		if err := tx.Model(&enrollment).Update("progress", percent).Error; err != nil {
			return err
		}

		progress = &Progress{ProgressPercent: percent, WatchedLessonIDs: watchedIDs}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return progress, nil
}

// GetProgress returns the current progress percent and watched lesson set.
func (s *Store) GetProgress(userID, courseID uint) (*Progress, error) {
	var enrollment models.Enrollment
	err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotEnrolled
		}
		return nil, err
	}

	percent, watchedIDs, err := computeProgress(s.db, &enrollment)
	if err != nil {
		return nil, err
	}

	return &Progress{ProgressPercent: percent, WatchedLessonIDs: watchedIDs}, nil
}

// ListForUser returns all of a user's enrollments, newest first.
func (s *Store) ListForUser(userID uint, page, limit int) ([]models.Enrollment, int64, error) {
	query := s.db.Model(&models.Enrollment{}).Where("user_id = ? AND is_deleted = false", userID)

	var total int64
	query.Count(&total)

	var enrollments []models.Enrollment
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&enrollments).Error
	if err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// computeProgress derives the percent from the intersection of the
// watched set with the course's current published lessons. The divisor is
// always the live lesson count: lessons added or removed after enrollment
// shift the percentage on the next mark.
func computeProgress(tx *gorm.DB, enrollment *models.Enrollment) (int, []uint, error) {
	var totalLessons int64
	err := tx.Model(&models.Lesson{}).
		Where("course_id = ? AND is_deleted = false AND is_published = true", enrollment.CourseID).
		Count(&totalLessons).Error
	if err != nil {
		return 0, nil, err
	}

	watchedIDs := []uint{}
	err = tx.Model(&models.WatchedLesson{}).
		Joins("JOIN lessons ON lessons.id = watched_lessons.lesson_id").
		Where("watched_lessons.enrollment_id = ?", enrollment.ID).
		Where("lessons.course_id = ? AND lessons.is_deleted = false AND lessons.is_published = true", enrollment.CourseID).
		Pluck("watched_lessons.lesson_id", &watchedIDs).Error
	if err != nil {
		return 0, nil, err
	}

	percent := 0
	if totalLessons > 0 {
		percent = int(math.Round(float64(len(watchedIDs)) / float64(totalLessons) * 100))
	}

	return percent, watchedIDs, nil
}
