package courseValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CourseIDParam validates the :id route parameter and stores it in Locals
func CourseIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(c.Params("id"))
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

// MarkLesson validates the lesson-watched request body
func MarkLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			LessonID uint `json:"lessonId" validate:"required"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"lessonId": "Lesson ID is required!"})
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

// SubmitAssessment validates the answer sheet
func SubmitAssessment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Answers []struct {
				QuestionID        uint   `json:"questionId" validate:"required"`
				SelectedOptionIDs []uint `json:"selectedOptionIds" validate:"required,min=1"`
			} `json:"answers" validate:"required,min=1,dive"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"answers": "At least one answer with selected options is required!"})
		}

		c.Locals("validatedAnswers", reqData.Answers)
		return c.Next()
	}
}
