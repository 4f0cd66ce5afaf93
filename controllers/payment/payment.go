package paymentController

import (
	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// CreatePaymentOrder initiates a checkout for a paid course
func CreatePaymentOrder(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedOrder").(*struct {
		CourseID uint `json:"courseId" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	payment, err := services.PaymentLedger.CreateOrder(userID, reqData.CourseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Payment order created!", fiber.Map{
		"orderId":    payment.GatewayOrderID,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
		"gatewayKey": config.AppConfig.GatewayKeyID,
	})
}

// VerifyPayment commits a signed gateway confirmation
func VerifyPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedVerify").(*struct {
		CourseID  uint   `json:"courseId" validate:"required"`
		OrderID   string `json:"orderId" validate:"required"`
		PaymentID string `json:"paymentId" validate:"required"`
		Signature string `json:"signature" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	payment, err := services.PaymentLedger.VerifyAndCommit(userID, reqData.CourseID,
		reqData.OrderID, reqData.PaymentID, reqData.Signature)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment verified successfully!", fiber.Map{
		"success":   true,
		"paymentId": payment.ID,
		"status":    payment.Status,
		"paidAt":    payment.PaidAt,
	})
}

// GetPaymentStatus returns the access projection for one course
func GetPaymentStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	status, err := services.PaymentLedger.GetStatus(userID, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment status fetched!", status)
}

// ReportPaymentFailure records a gateway-reported failure for an order
func ReportPaymentFailure(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedFailure").(*struct {
		OrderID string `json:"orderId" validate:"required"`
		Reason  string `json:"reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	reason := reqData.Reason
	if reason == "" {
		reason = models.FailureGatewayDeclined
	}

	if err := services.PaymentLedger.MarkFailed(reqData.OrderID, reason); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment failure recorded!", nil)
}

// RefundPayment moves a paid order to refunded (Admin only)
func RefundPayment(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRefund").(*struct {
		OrderID string `json:"orderId" validate:"required"`
		Amount  uint   `json:"amount" validate:"required,gt=0"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := services.PaymentLedger.MarkRefunded(reqData.OrderID, reqData.Amount); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment refunded!", nil)
}

// GetPaymentHistory returns the user's payments, newest first
func GetPaymentHistory(c *fiber.Ctx) error {
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
	offset := (page - 1) * limit

	db := database.Database.Db
	query := db.Model(&models.Payment{}).Where("user_id = ? AND is_deleted = false", userID)

	var total int64
	query.Count(&total)

	var payments []models.Payment
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payment history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment history fetched!", fiber.Map{
		"payments": payments,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
