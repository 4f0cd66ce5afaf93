package reviewValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CourseIDParam validates the :courseId route parameter
func CourseIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(c.Params("courseId"))
		if courseIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course ID is required!", nil)
		}

		courseID, err := strconv.Atoi(courseIDStr)
		if err != nil || courseID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		c.Locals("courseID", uint(courseID))
		return c.Next()
	}
}

// ReviewIDParam validates the :id route parameter
func ReviewIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reviewIDStr := strings.TrimSpace(c.Params("id"))
		if reviewIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Review ID is required!", nil)
		}

		reviewID, err := strconv.Atoi(reviewIDStr)
		if err != nil || reviewID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Review ID!", nil)
		}

		c.Locals("reviewID", uint(reviewID))
		return c.Next()
	}
}

// SubmitReview validates a new review body
func SubmitReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID uint   `json:"courseId" validate:"required"`
			Rating   int    `json:"rating" validate:"required,min=1,max=5"`
			Title    string `json:"title" validate:"max=120"`
			Comment  string `json:"comment"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "CourseID":
					errors["courseId"] = "Course ID is required!"
				case "Rating":
					errors["rating"] = "Rating must be between 1 and 5!"
				case "Title":
					errors["title"] = "Title must be at most 120 characters!"
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

// UpdateReview validates an edited review body
func UpdateReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Rating  int    `json:"rating" validate:"required,min=1,max=5"`
			Title   string `json:"title" validate:"max=120"`
			Comment string `json:"comment"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Rating":
					errors["rating"] = "Rating must be between 1 and 5!"
				case "Title":
					errors["title"] = "Title must be at most 120 characters!"
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReviewUpdate", reqData)
		return c.Next()
	}
}
