package enrollment

import (
	"lms/apperrors"
	"lms/models"
	"lms/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCourseWithLessons(t *testing.T, db *gorm.DB, lessonCount int) (*models.Course, []models.Lesson) {
	t.Helper()

	course := models.Course{Title: "Candlestick Basics", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	lessons := make([]models.Lesson, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lessons[i] = models.Lesson{CourseID: course.ID, Title: "Lesson", OrderIndex: i, IsPublished: true}
		require.NoError(t, db.Create(&lessons[i]).Error)
	}

	return &course, lessons
}

func TestEnrollIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course, _ := seedCourseWithLessons(t, db, 3)
	store := NewStore(db)

	first, err := store.Enroll(1, course.ID)
	require.NoError(t, err)

	second, err := store.Enroll(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMarkLessonWatchedRequiresEnrollment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course, lessons := seedCourseWithLessons(t, db, 3)
	store := NewStore(db)

	_, err := store.MarkLessonWatched(1, course.ID, lessons[0].ID)
	assert.Equal(t, apperrors.ErrNotEnrolled, err)
}

func TestMarkLessonWatchedProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course, lessons := seedCourseWithLessons(t, db, 3)
	store := NewStore(db)

	_, err := store.Enroll(1, course.ID)
	require.NoError(t, err)

	progress, err := store.MarkLessonWatched(1, course.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 33, progress.ProgressPercent)

	progress, err = store.MarkLessonWatched(1, course.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 67, progress.ProgressPercent)

	progress, err = store.MarkLessonWatched(1, course.ID, lessons[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.ProgressPercent)
	assert.Len(t, progress.WatchedLessonIDs, 3)
}

func TestMarkLessonWatchedIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course, lessons := seedCourseWithLessons(t, db, 2)
	store := NewStore(db)

	_, err := store.Enroll(1, course.ID)
	require.NoError(t, err)

	first, err := store.MarkLessonWatched(1, course.ID, lessons[0].ID)
	require.NoError(t, err)

	second, err := store.MarkLessonWatched(1, course.ID, lessons[0].ID)
	require.NoError(t, err)

	assert.Equal(t, first.ProgressPercent, second.ProgressPercent)
	assert.Equal(t, 50, second.ProgressPercent)
	assert.Len(t, second.WatchedLessonIDs, 1)
}

func TestMarkUnknownLessonIsSilentNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course, _ := seedCourseWithLessons(t, db, 2)
	store := NewStore(db)

	_, err := store.Enroll(1, course.ID)
	require.NoError(t, err)

	progress, err := store.MarkLessonWatched(1, course.ID, 99999)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.ProgressPercent)
	assert.Empty(t, progress.WatchedLessonIDs)
}

func TestProgressRecomputedAgainstCurrentLessonSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course, lessons := seedCourseWithLessons(t, db, 2)
	store := NewStore(db)

	_, err := store.Enroll(1, course.ID)
	require.NoError(t, err)

	progress, err := store.MarkLessonWatched(1, course.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, progress.ProgressPercent)

	// A lesson published after enrollment shifts the denominator
	extra := models.Lesson{CourseID: course.ID, Title: "Bonus", IsPublished: true}
	require.NoError(t, db.Create(&extra).Error)

	progress, err = store.MarkLessonWatched(1, course.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 67, progress.ProgressPercent)

	// A removed lesson drops out of both sets
	require.NoError(t, db.Model(&models.Lesson{}).Where("id = ?", lessons[0].ID).Update("is_deleted", true).Error)

	progress, err = store.GetProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, progress.ProgressPercent)
	assert.Len(t, progress.WatchedLessonIDs, 1)
}

func TestGetProgressWithoutEnrollment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course, _ := seedCourseWithLessons(t, db, 1)
	store := NewStore(db)

	_, err := store.GetProgress(1, course.ID)
	assert.Equal(t, apperrors.ErrNotEnrolled, err)
}

func TestListForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	courseA, _ := seedCourseWithLessons(t, db, 1)
	store := NewStore(db)

	courseB := models.Course{Title: "Second", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&courseB).Error)

	_, err := store.Enroll(1, courseA.ID)
	require.NoError(t, err)
	_, err = store.Enroll(1, courseB.ID)
	require.NoError(t, err)

	enrollments, total, err := store.ListForUser(1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, enrollments, 2)
}
