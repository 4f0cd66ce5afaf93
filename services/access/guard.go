package access

import (
	"lms/apperrors"
	"lms/models"
	"lms/services/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Guard derives whether course content is reachable for a user. It holds
// no state of its own: free courses are always reachable, paid ones only
// behind a PAID ledger entry.
type Guard struct {
	db     *gorm.DB
	ledger *payment.Ledger
}

func NewGuard(db *gorm.DB, ledger *payment.Ledger) *Guard {
	return &Guard{db: db, ledger: ledger}
}

// CanAccess reports whether the user may reach the course's content.
// On denial the returned error is PAYMENT_REQUIRED carrying the course
// price so clients can route straight to checkout.
func (g *Guard) CanAccess(userID, courseID uint) error {
	var course models.Course
	if err := g.db.Where("id = ? AND is_deleted = false", courseID).First(&course).Error; err != nil {
		return apperrors.ErrCourseNotFound
	}

	if course.IsFree() {
		return nil
	}

	if g.ledger.HasPaid(userID, courseID) {
		return nil
	}

	return apperrors.ErrPaymentRequired.WithData(fiber.Map{
		"courseId": course.ID,
		"price":    course.Price,
		"currency": course.Currency,
	})
}

// CheckContentAccess gates content-serving routes: the course must be
// reachable and the user enrolled. The two denials stay distinct so
// clients can tell "go pay" from "go enroll".
func (g *Guard) CheckContentAccess(userID, courseID uint) (*models.Enrollment, error) {
	if err := g.CanAccess(userID, courseID); err != nil {
		return nil, err
	}

	var enrollment models.Enrollment
	err := g.db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, apperrors.ErrEnrollmentRequired
	}

	return &enrollment, nil
}
