package courseController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services"
	"lms/services/assessment"

	"github.com/gofiber/fiber/v2"
)

// EnrollInCourse enrolls the user into a course. Free courses enroll
// directly; paid ones require a committed payment first.
func EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	if err := services.AccessGuard.CanAccess(userID, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	enrollment, err := services.Enrollments.Enroll(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

// MarkLessonWatched records a finished lesson and returns fresh progress
func MarkLessonWatched(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	reqData, ok := c.Locals("validatedLesson").(*struct {
		LessonID uint `json:"lessonId" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := services.AccessGuard.CanAccess(userID, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	progress, err := services.Enrollments.MarkLessonWatched(userID, courseID, reqData.LessonID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as watched!", progress)
}

// GetProgress returns the user's progress in a course
func GetProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	progress, err := services.Enrollments.GetProgress(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	state, err := services.Completion.Evaluate(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"progressPercent":  progress.ProgressPercent,
		"watchedLessonIds": progress.WatchedLessonIDs,
		"completionState":  state,
	})
}

// CompleteCourse runs the completion gate and, first time through, issues
// the certificate. Safe to call more than once.
func CompleteCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	result, err := services.Completion.Complete(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course completed!", result)
}

// GetAssessment returns the course's questions with answers stripped
func GetAssessment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	if _, err := services.AccessGuard.CheckContentAccess(userID, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	questions, err := services.Assessments.GetQuestions(courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assessment fetched!", fiber.Map{
		"questions": questions,
	})
}

// SubmitAssessment grades a submission, records the attempt and reports
// the resulting completion state
func SubmitAssessment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	answers, ok := c.Locals("validatedAnswers").([]struct {
		QuestionID        uint   `json:"questionId" validate:"required"`
		SelectedOptionIDs []uint `json:"selectedOptionIds" validate:"required,min=1"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if _, err := services.AccessGuard.CheckContentAccess(userID, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	submitted := make([]assessment.Answer, 0, len(answers))
	for _, a := range answers {
		submitted = append(submitted, assessment.Answer{QuestionID: a.QuestionID, SelectedOptionIDs: a.SelectedOptionIDs})
	}

	attempt, err := services.Assessments.RecordAttempt(userID, courseID, submitted)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	state, err := services.Completion.Evaluate(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assessment submitted!", fiber.Map{
		"attempt":         attempt,
		"score":           attempt.Score,
		"passed":          attempt.Passed,
		"completionState": state,
	})
}

// GetUserEnrollmentsList gets all enrollments for the current user
func GetUserEnrollmentsList(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	enrollments, total, err := services.Enrollments.ListForUser(userID, page, limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	type EnrollmentWithCourse struct {
		models.Enrollment
		CourseTitle  string `json:"course_title"`
		CourseAuthor string `json:"course_author"`
	}

	db := database.Database.Db
	result := make([]EnrollmentWithCourse, len(enrollments))
	for i, e := range enrollments {
		var course models.Course
		db.Where("id = ?", e.CourseID).First(&course)
		result[i] = EnrollmentWithCourse{
			Enrollment:   e,
			CourseTitle:  course.Title,
			CourseAuthor: course.Author,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": result,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetUserCertificates gets all certificates for the current user
func GetUserCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	certificates, err := services.Completion.GetCertificates(userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	type CertificateWithCourse struct {
		models.Certificate
		CourseTitle string `json:"course_title"`
	}

	db := database.Database.Db
	result := make([]CertificateWithCourse, len(certificates))
	for i, cert := range certificates {
		var course models.Course
		db.Where("id = ?", cert.CourseID).First(&course)
		result[i] = CertificateWithCourse{Certificate: cert, CourseTitle: course.Title}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": result,
		"total":        len(result),
	})
}
