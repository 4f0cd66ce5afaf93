package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/courses")

	// Enrollment (free courses directly, paid after checkout)
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.EnrollInCourse)

	// Progress tracking
	courseGroup.Post("/:id/progress/lesson", middleware.JWTMiddleware, validators.CourseIDParam(), validators.MarkLesson(), controllers.MarkLessonWatched)
	courseGroup.Get("/:id/progress", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetProgress)

	// Completion & certificate
	courseGroup.Post("/:id/complete", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.CompleteCourse)

	// Assessment
	courseGroup.Get("/:id/assessment", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetAssessment)
	courseGroup.Post("/:id/assessment/submit", middleware.JWTMiddleware, validators.CourseIDParam(), validators.SubmitAssessment(), controllers.SubmitAssessment)

	// User enrollments and certificates
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollmentsList)
	userGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)
}
