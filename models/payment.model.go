package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment status values. Status only ever moves forward:
// created -> attempted -> paid|failed -> refunded.
const (
	PaymentStatusCreated   = "CREATED"
	PaymentStatusAttempted = "ATTEMPTED"
	PaymentStatusPaid      = "PAID"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

// Payment failure reasons
const (
	FailureInvalidSignature = "INVALID_SIGNATURE"
	FailureGatewayDeclined  = "GATEWAY_DECLINED"
)

// Payment records one checkout attempt for a course. A pair may carry
// many failed or pending orders but at most one PAID row, enforced by a
// partial unique index.
type Payment struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"index:idx_payment_user_course;index:idx_one_paid_per_pair,unique,where:status = 'PAID';not null"`
	CourseID         uint       `json:"course_id" gorm:"index:idx_payment_user_course;index:idx_one_paid_per_pair,unique,where:status = 'PAID';not null"`
	Amount           uint       `json:"amount" gorm:"not null"`
	Currency         string     `json:"currency" gorm:"default:'INR'"`
	GatewayOrderID   string     `json:"gateway_order_id" gorm:"uniqueIndex;not null"`
	GatewayPaymentID string     `json:"gateway_payment_id"`
	GatewaySignature string     `json:"-"`
	Status           string     `json:"status" gorm:"default:'CREATED';index"`
	FailureReason    string     `json:"failure_reason"`
	PaidAt           *time.Time `json:"paid_at"`
	RefundAmount     uint       `json:"refund_amount" gorm:"default:0"`
	RefundedAt       *time.Time `json:"refunded_at"`
	IsDeleted        bool       `gorm:"default:false"`
}

// CanTransition is the total transition function of the payment state
// machine. Any move it does not list is illegal.
func CanTransition(from, to string) bool {
	switch from {
	case PaymentStatusCreated:
		return to == PaymentStatusAttempted || to == PaymentStatusPaid || to == PaymentStatusFailed
	case PaymentStatusAttempted:
		return to == PaymentStatusPaid || to == PaymentStatusFailed
	case PaymentStatusPaid:
		return to == PaymentStatusRefunded
	default:
		// FAILED and REFUNDED are terminal
		return false
	}
}
