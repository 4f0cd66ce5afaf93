package services

import (
	"lms/config"
	"lms/services/access"
	"lms/services/assessment"
	"lms/services/completion"
	"lms/services/enrollment"
	"lms/services/payment"
	"lms/services/rating"
	"time"

	"gorm.io/gorm"
)

// Shared service instances wired over the global database connection.
// Controllers read these; tests build their own instances instead.
var (
	PaymentLedger *payment.Ledger
	AccessGuard   *access.Guard
	Enrollments   *enrollment.Store
	Assessments   *assessment.Log
	Completion    *completion.Gate
	Ratings       *rating.Aggregator
)

// Init builds the service graph. Called once from main after config and
// database are ready.
func Init(db *gorm.DB, notifier completion.Notifier) {
	cfg := config.AppConfig

	gateway := payment.NewRestGateway(
		cfg.GatewayApiURL,
		cfg.GatewayKeyID,
		cfg.GatewaySecretKey,
		time.Duration(cfg.GatewayTimeoutMs)*time.Millisecond,
	)

	PaymentLedger = payment.NewLedger(db, gateway, cfg.GatewaySecretKey)
	AccessGuard = access.NewGuard(db, PaymentLedger)
	Enrollments = enrollment.NewStore(db)
	Assessments = assessment.NewLog(db, cfg.AssessmentPassPercent)
	Completion = completion.NewGate(db, Enrollments, Assessments, notifier)
	Ratings = rating.NewAggregator(db, cfg.ReviewProgressPercent)
}
