package paymentRoutes

import (
	controllers "lms/controllers/payment"
	"lms/middleware"
	validators "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up all payment routes
func SetupPaymentRoutes(app *fiber.App) {
	paymentGroup := app.Group("/payments")

	paymentGroup.Post("/orders", middleware.JWTMiddleware, validators.CreateOrder(), controllers.CreatePaymentOrder)
	paymentGroup.Post("/verify", middleware.JWTMiddleware, validators.VerifyPayment(), controllers.VerifyPayment)
	paymentGroup.Post("/failed", middleware.JWTMiddleware, validators.ReportFailure(), controllers.ReportPaymentFailure)
	paymentGroup.Get("/status/:courseId", middleware.JWTMiddleware, validators.CourseIDParam(), controllers.GetPaymentStatus)
	paymentGroup.Get("/history", middleware.JWTMiddleware, controllers.GetPaymentHistory)

	// Refunds are an admin operation
	paymentGroup.Post("/refund", middleware.JWTMiddleware, middleware.RequireRole("ADMIN", "SUPER-ADMIN"), validators.Refund(), controllers.RefundPayment)
}
