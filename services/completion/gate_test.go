package completion

import (
	"lms/apperrors"
	"lms/models"
	"lms/services/assessment"
	"lms/services/enrollment"
	"lms/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) CertificateIssued(userID, courseID uint, certificateNumber string) {
	n.calls = append(n.calls, certificateNumber)
}

type fixture struct {
	db          *gorm.DB
	enrollments *enrollment.Store
	attempts    *assessment.Log
	gate        *Gate
	notifier    *recordingNotifier
}

func setupGate(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	enrollments := enrollment.NewStore(db)
	attempts := assessment.NewLog(db, 70)
	notifier := &recordingNotifier{}
	return &fixture{
		db:          db,
		enrollments: enrollments,
		attempts:    attempts,
		gate:        NewGate(db, enrollments, attempts, notifier),
		notifier:    notifier,
	}
}

func (f *fixture) seedCourse(t *testing.T, lessonCount int, withAssessment bool) (*models.Course, []models.Lesson, []models.AssessmentOption) {
	t.Helper()

	course := models.Course{Title: "Swing Trading", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, f.db.Create(&course).Error)

	lessons := make([]models.Lesson, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lessons[i] = models.Lesson{CourseID: course.ID, Title: "Lesson", OrderIndex: i, IsPublished: true}
		require.NoError(t, f.db.Create(&lessons[i]).Error)
	}

	var correct []models.AssessmentOption
	if withAssessment {
		question := models.AssessmentQuestion{CourseID: course.ID, QuestionText: "Q"}
		require.NoError(t, f.db.Create(&question).Error)
		right := models.AssessmentOption{QuestionID: question.ID, IsCorrect: true}
		require.NoError(t, f.db.Create(&right).Error)
		correct = append(correct, right)
	}

	return &course, lessons, correct
}

func (f *fixture) watchAll(t *testing.T, userID uint, courseID uint, lessons []models.Lesson) {
	t.Helper()
	for _, lesson := range lessons {
		_, err := f.enrollments.MarkLessonWatched(userID, courseID, lesson.ID)
		require.NoError(t, err)
	}
}

func TestEvaluateStates(t *testing.T) {
	f := setupGate(t)
	course, lessons, correct := f.seedCourse(t, 2, true)

	state, err := f.gate.Evaluate(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, StateNotStarted, state)

	_, err = f.enrollments.Enroll(1, course.ID)
	require.NoError(t, err)

	state, err = f.gate.Evaluate(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, state)

	f.watchAll(t, 1, course.ID, lessons)

	state, err = f.gate.Evaluate(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAssessmentRequired, state)

	_, err = f.attempts.RecordAttempt(1, course.ID, []assessment.Answer{
		{QuestionID: correct[0].QuestionID, SelectedOptionIDs: []uint{correct[0].ID}},
	})
	require.NoError(t, err)

	state, err = f.gate.Evaluate(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)
}

func TestVideoOnlyCourseCompletesDirectly(t *testing.T) {
	f := setupGate(t)
	course, lessons, _ := f.seedCourse(t, 3, false)

	_, err := f.enrollments.Enroll(1, course.ID)
	require.NoError(t, err)
	f.watchAll(t, 1, course.ID, lessons)

	result, err := f.gate.Complete(1, course.ID)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.NotNil(t, result.CertificateEarnedAt)
	assert.NotEmpty(t, result.CertificateNumber)

	var enr models.Enrollment
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", 1, course.ID).First(&enr).Error)
	assert.True(t, enr.CertificateEarned)
}

func TestCompleteRejectsUnfinishedCourse(t *testing.T) {
	f := setupGate(t)
	course, lessons, _ := f.seedCourse(t, 2, false)

	_, err := f.gate.Complete(1, course.ID)
	assert.Equal(t, apperrors.ErrNotEnrolled, err)

	_, err = f.enrollments.Enroll(1, course.ID)
	require.NoError(t, err)

	_, err = f.gate.Complete(1, course.ID)
	assert.Equal(t, apperrors.ErrCourseNotFinished, err)

	_, err = f.enrollments.MarkLessonWatched(1, course.ID, lessons[0].ID)
	require.NoError(t, err)

	_, err = f.gate.Complete(1, course.ID)
	assert.Equal(t, apperrors.ErrCourseNotFinished, err)
}

func TestCompleteRequiresPassedAssessment(t *testing.T) {
	f := setupGate(t)
	course, lessons, correct := f.seedCourse(t, 1, true)

	_, err := f.enrollments.Enroll(1, course.ID)
	require.NoError(t, err)
	f.watchAll(t, 1, course.ID, lessons)

	_, err = f.gate.Complete(1, course.ID)
	assert.Equal(t, apperrors.ErrAssessmentRequired, err)

	_, err = f.attempts.RecordAttempt(1, course.ID, []assessment.Answer{
		{QuestionID: correct[0].QuestionID, SelectedOptionIDs: []uint{correct[0].ID}},
	})
	require.NoError(t, err)

	result, err := f.gate.Complete(1, course.ID)
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := setupGate(t)
	course, lessons, _ := f.seedCourse(t, 1, false)

	_, err := f.enrollments.Enroll(1, course.ID)
	require.NoError(t, err)
	f.watchAll(t, 1, course.ID, lessons)

	first, err := f.gate.Complete(1, course.ID)
	require.NoError(t, err)

	second, err := f.gate.Complete(1, course.ID)
	require.NoError(t, err)

	require.NotNil(t, first.CertificateEarnedAt)
	require.NotNil(t, second.CertificateEarnedAt)
	assert.Equal(t, first.CertificateEarnedAt.Unix(), second.CertificateEarnedAt.Unix())
	assert.Equal(t, first.CertificateNumber, second.CertificateNumber)

	// Certificate issued, and notified, exactly once
	var certs int64
	f.db.Model(&models.Certificate{}).Count(&certs)
	assert.Equal(t, int64(1), certs)
	assert.Len(t, f.notifier.calls, 1)
}

func TestCompletedIsStickyAfterFailedRetake(t *testing.T) {
	f := setupGate(t)
	course, lessons, correct := f.seedCourse(t, 1, true)

	_, err := f.enrollments.Enroll(1, course.ID)
	require.NoError(t, err)
	f.watchAll(t, 1, course.ID, lessons)

	_, err = f.attempts.RecordAttempt(1, course.ID, []assessment.Answer{
		{QuestionID: correct[0].QuestionID, SelectedOptionIDs: []uint{correct[0].ID}},
	})
	require.NoError(t, err)

	result, err := f.gate.Complete(1, course.ID)
	require.NoError(t, err)

	// Retaking and failing afterwards must not unset anything
	_, err = f.attempts.RecordAttempt(1, course.ID, []assessment.Answer{
		{QuestionID: correct[0].QuestionID, SelectedOptionIDs: []uint{correct[0].ID + 1000}},
	})
	require.NoError(t, err)

	state, err := f.gate.Evaluate(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)

	again, err := f.gate.Complete(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, result.CertificateNumber, again.CertificateNumber)

	var enr models.Enrollment
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", 1, course.ID).First(&enr).Error)
	assert.True(t, enr.CertificateEarned)
}

func TestGetCertificates(t *testing.T) {
	f := setupGate(t)
	course, lessons, _ := f.seedCourse(t, 1, false)

	_, err := f.enrollments.Enroll(4, course.ID)
	require.NoError(t, err)
	f.watchAll(t, 4, course.ID, lessons)

	_, err = f.gate.Complete(4, course.ID)
	require.NoError(t, err)

	certs, err := f.gate.GetCertificates(4)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, course.ID, certs[0].CourseID)
}

func TestEvaluateSurfacesStorageErrors(t *testing.T) {
	f := setupGate(t)
	require.NoError(t, f.db.Migrator().DropTable(&models.Enrollment{}))

	_, err := f.gate.Evaluate(1, 1)
	require.Error(t, err)
}

func TestCompleteSurfacesStorageErrors(t *testing.T) {
	f := setupGate(t)
	require.NoError(t, f.db.Migrator().DropTable(&models.Enrollment{}))

	_, err := f.gate.Complete(1, 1)
	require.Error(t, err)
	assert.NotEqual(t, apperrors.ErrNotEnrolled, err)
}
