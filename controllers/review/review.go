package reviewController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// CanReview tells the client whether a review form should be offered
func CanReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	eligibility, err := services.Ratings.CanReview(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review eligibility checked!", eligibility)
}

// SubmitReview creates a review and synchronously refreshes the course
// rating summary
func SubmitReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedReview").(*struct {
		CourseID uint   `json:"courseId" validate:"required"`
		Rating   int    `json:"rating" validate:"required,min=1,max=5"`
		Title    string `json:"title" validate:"max=120"`
		Comment  string `json:"comment"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	review, err := services.Ratings.CreateReview(userID, reqData.CourseID, reqData.Rating, reqData.Title, reqData.Comment)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review submitted successfully!", review)
}

// UpdateReview edits the caller's review and refreshes the summary
func UpdateReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reviewID := c.Locals("reviewID").(uint)

	reqData, ok := c.Locals("validatedReviewUpdate").(*struct {
		Rating  int    `json:"rating" validate:"required,min=1,max=5"`
		Title   string `json:"title" validate:"max=120"`
		Comment string `json:"comment"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	review, err := services.Ratings.UpdateReview(userID, reviewID, reqData.Rating, reqData.Title, reqData.Comment)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review updated successfully!", review)
}

// DeleteReview removes the caller's review and refreshes the summary
func DeleteReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reviewID := c.Locals("reviewID").(uint)

	if err := services.Ratings.DeleteReview(userID, reviewID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review deleted successfully!", nil)
}

// GetCourseReviews returns a course's reviews plus its current summary
func GetCourseReviews(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	reviews, total, err := services.Ratings.ListForCourse(courseID, page, limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch reviews!", nil)
	}

	var course models.Course
	database.Database.Db.Where("id = ? AND is_deleted = false", courseID).First(&course)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reviews fetched!", fiber.Map{
		"reviews": reviews,
		"summary": fiber.Map{
			"average": course.RatingAvg,
			"count":   course.RatingCount,
		},
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
