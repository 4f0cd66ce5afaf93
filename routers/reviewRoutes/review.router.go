package reviewRoutes

import (
	controllers "lms/controllers/review"
	"lms/middleware"
	validators "lms/validators/review"

	"github.com/gofiber/fiber/v2"
)

// SetupReviewRoutes sets up all review routes
func SetupReviewRoutes(app *fiber.App) {
	reviewGroup := app.Group("/reviews")

	reviewGroup.Get("/course/:courseId", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetCourseReviews)
	reviewGroup.Get("/course/:courseId/can-review", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.CanReview)

	reviewGroup.Post("/", middleware.JWTMiddleware, validators.SubmitReview(), controllers.SubmitReview)
	reviewGroup.Put("/:id", middleware.JWTMiddleware, validators.ReviewIDParam(), validators.UpdateReview(), controllers.UpdateReview)
	reviewGroup.Delete("/:id", middleware.JWTMiddleware, validators.ReviewIDParam(), controllers.DeleteReview)
}
