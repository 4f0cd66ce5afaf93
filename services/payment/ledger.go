package payment

import (
	"fmt"
	"lms/apperrors"
	"lms/models"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger owns Payment records and their state machine, and is the only
// component allowed to move a payment between states.
type Ledger struct {
	db        *gorm.DB
	gateway   Gateway
	secretKey string
}

// NewLedger wires a Ledger over the given database handle and gateway client.
func NewLedger(db *gorm.DB, gateway Gateway, secretKey string) *Ledger {
	return &Ledger{db: db, gateway: gateway, secretKey: secretKey}
}

// Status is the read-only payment projection for one (user, course) pair.
type Status struct {
	IsFree    bool `json:"isFree"`
	HasPaid   bool `json:"hasPaid"`
	CanAccess bool `json:"canAccess"`
}

// CreateOrder initiates a checkout: registers an order with the gateway
// and persists a CREATED payment carrying the gateway's order id. Gateway
// failures leave no payment record behind, so the caller can simply retry.
func (l *Ledger) CreateOrder(userID, courseID uint) (*models.Payment, error) {
	var course models.Course
	if err := l.db.Where("id = ? AND is_deleted = false AND status = ?", courseID, "ACTIVE").First(&course).Error; err != nil {
		return nil, apperrors.ErrCourseNotFound
	}

	if course.IsFree() {
		return nil, apperrors.ErrCourseFree
	}

	if l.HasPaid(userID, courseID) {
		return nil, apperrors.ErrAlreadyPaid
	}

	// A paid course should never have an enrollment before payment; if one
	// exists the purchase is refused rather than double-charging.
	var enrollment models.Enrollment
	if err := l.db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).First(&enrollment).Error; err == nil {
		return nil, apperrors.ErrAlreadyEnrolled
	}

	receipt := fmt.Sprintf("course_%d_user_%d_%s", courseID, userID, uuid.NewString()[:8])
	gatewayOrderID, err := l.gateway.CreateOrder(course.Price, course.Currency, receipt)
	if err != nil {
		log.Printf("[PAYMENT] gateway order creation failed for user=%d course=%d: %v", userID, courseID, err)
		return nil, apperrors.ErrGatewayUnavailable
	}

	payment := models.Payment{
		UserID:         userID,
		CourseID:       courseID,
		Amount:         course.Price,
		Currency:       course.Currency,
		GatewayOrderID: gatewayOrderID,
		Status:         models.PaymentStatusCreated,
	}

	if err := l.db.Create(&payment).Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// VerifyAndCommit validates a signed gateway confirmation and, on success,
// marks the payment PAID and creates the enrollment if it does not exist.
// The CREATED/ATTEMPTED -> PAID move is a guarded update so duplicate
// gateway callbacks commit exactly once.
func (l *Ledger) VerifyAndCommit(userID, courseID uint, gatewayOrderID, gatewayPaymentID, signature string) (*models.Payment, error) {
	var payment models.Payment
	err := l.db.Where("user_id = ? AND course_id = ? AND gateway_order_id = ? AND is_deleted = false",
		userID, courseID, gatewayOrderID).First(&payment).Error
	if err != nil {
		return nil, apperrors.ErrPaymentNotFound
	}

	// Duplicate webhook for an already-committed payment is a no-op success.
	if payment.Status == models.PaymentStatusPaid && payment.GatewayPaymentID == gatewayPaymentID {
		return &payment, nil
	}

	if !VerifySignature(l.secretKey, gatewayOrderID, gatewayPaymentID, signature) {
		// Terminal failure; retrying requires a brand-new order so a stale
		// signature can never be replayed against a fresh context.
		res := l.db.Model(&models.Payment{}).
			Where("id = ? AND status IN ?", payment.ID, []string{models.PaymentStatusCreated, models.PaymentStatusAttempted}).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusFailed,
				"failure_reason": models.FailureInvalidSignature,
			})
		if res.Error != nil {
			log.Printf("[PAYMENT] failed to record signature mismatch for order=%s: %v", gatewayOrderID, res.Error)
			return nil, res.Error
		}
		log.Printf("[PAYMENT] signature mismatch for order=%s user=%d course=%d", gatewayOrderID, userID, courseID)
		return nil, apperrors.ErrInvalidSignature
	}

	now := time.Now()
	err = l.db.Transaction(func(tx *gorm.DB) error {
		// A second outstanding order for the pair must not commit once one
		// has been paid; the partial unique index on PAID rows backs this
		// up against concurrent commits.
		var paidCount int64
		err := tx.Model(&models.Payment{}).
			Where("user_id = ? AND course_id = ? AND status = ? AND id <> ? AND is_deleted = false",
				userID, courseID, models.PaymentStatusPaid, payment.ID).
			Count(&paidCount).Error
		if err != nil {
			return err
		}
		if paidCount > 0 {
			return apperrors.ErrAlreadyPaid
		}

		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status IN ?", payment.ID, []string{models.PaymentStatusCreated, models.PaymentStatusAttempted}).
			Updates(map[string]interface{}{
				"status":             models.PaymentStatusPaid,
				"gateway_payment_id": gatewayPaymentID,
				"gateway_signature":  signature,
				"paid_at":            now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race; a concurrent callback already settled it.
			var current models.Payment
			if err := tx.First(&current, payment.ID).Error; err != nil {
				return err
			}
			if current.Status == models.PaymentStatusPaid {
				return nil
			}
			return apperrors.ErrIllegalTransition
		}

		var enrollment models.Enrollment
		return tx.Where(models.Enrollment{UserID: userID, CourseID: courseID}).
			Attrs(models.Enrollment{EnrolledAt: now}).
			FirstOrCreate(&enrollment).Error
	})
	if err != nil {
		return nil, err
	}

	if err := l.db.First(&payment, payment.ID).Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// MarkAttempted records that the gateway saw a payment attempt for the
// order. Only legal from CREATED.
func (l *Ledger) MarkAttempted(gatewayOrderID string) error {
	return l.transition(gatewayOrderID, []string{models.PaymentStatusCreated}, map[string]interface{}{
		"status": models.PaymentStatusAttempted,
	})
}

// MarkFailed records a gateway-reported failure. Only legal from
// CREATED or ATTEMPTED.
func (l *Ledger) MarkFailed(gatewayOrderID, reason string) error {
	return l.transition(gatewayOrderID, []string{models.PaymentStatusCreated, models.PaymentStatusAttempted}, map[string]interface{}{
		"status":         models.PaymentStatusFailed,
		"failure_reason": reason,
	})
}

// MarkRefunded moves a PAID payment to REFUNDED with the refunded amount.
func (l *Ledger) MarkRefunded(gatewayOrderID string, amount uint) error {
	now := time.Now()
	return l.transition(gatewayOrderID, []string{models.PaymentStatusPaid}, map[string]interface{}{
		"status":        models.PaymentStatusRefunded,
		"refund_amount": amount,
		"refunded_at":   now,
	})
}

func (l *Ledger) transition(gatewayOrderID string, fromStatuses []string, updates map[string]interface{}) error {
	var payment models.Payment
	if err := l.db.Where("gateway_order_id = ? AND is_deleted = false", gatewayOrderID).First(&payment).Error; err != nil {
		return apperrors.ErrPaymentNotFound
	}

	res := l.db.Model(&models.Payment{}).
		Where("id = ? AND status IN ?", payment.ID, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrIllegalTransition
	}
	return nil
}

// HasPaid reports whether a PAID payment exists for the pair.
func (l *Ledger) HasPaid(userID, courseID uint) bool {
	var count int64
	l.db.Model(&models.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = false",
			userID, courseID, models.PaymentStatusPaid).
		Count(&count)
	return count > 0
}

// GetStatus combines course price and payment state into the access
// projection content routes rely on.
func (l *Ledger) GetStatus(userID, courseID uint) (*Status, error) {
	var course models.Course
	if err := l.db.Where("id = ? AND is_deleted = false", courseID).First(&course).Error; err != nil {
		return nil, apperrors.ErrCourseNotFound
	}

	hasPaid := l.HasPaid(userID, courseID)
	return &Status{
		IsFree:    course.IsFree(),
		HasPaid:   hasPaid,
		CanAccess: course.IsFree() || hasPaid,
	}, nil
}
