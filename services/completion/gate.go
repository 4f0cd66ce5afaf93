package completion

import (
	"errors"
	"lms/apperrors"
	"lms/database"
	"lms/models"
	"lms/services/assessment"
	"lms/services/enrollment"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State of a user's journey through a course. Recomputed from enrollment
// progress and the assessment log on every evaluation; nothing but the
// certificate flag is persisted.
type State string

const (
	StateNotStarted         State = "NOT_STARTED"
	StateInProgress         State = "IN_PROGRESS"
	StateAssessmentRequired State = "ASSESSMENT_REQUIRED"
	StateCompleted          State = "COMPLETED"
)

// Notifier is told when a certificate is first issued. Implementations
// must tolerate being called from the request path.
type Notifier interface {
	CertificateIssued(userID, courseID uint, certificateNumber string)
}

// Gate decides when a course counts as completed for a user and performs
// the one-time certificate issuance.
type Gate struct {
	db          *gorm.DB
	enrollments *enrollment.Store
	attempts    *assessment.Log
	notifier    Notifier
}

func NewGate(db *gorm.DB, enrollments *enrollment.Store, attempts *assessment.Log, notifier Notifier) *Gate {
	return &Gate{db: db, enrollments: enrollments, attempts: attempts, notifier: notifier}
}

// Result is what a completion call reports back.
type Result struct {
	Completed           bool       `json:"completed"`
	State               State      `json:"state"`
	CertificateEarnedAt *time.Time `json:"certificateEarnedAt,omitempty"`
	CertificateNumber   string     `json:"certificateNumber,omitempty"`
}

// Evaluate recomputes the completion state for (user, course). It never
// mutates anything, which makes it safe to call after every lesson mark.
func (g *Gate) Evaluate(userID, courseID uint) (State, error) {
	var enr models.Enrollment
	err := g.db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).
		First(&enr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StateNotStarted, nil
		}
		return StateNotStarted, err
	}

	progress, err := g.enrollments.GetProgress(userID, courseID)
	if err != nil {
		return StateNotStarted, err
	}

	if progress.ProgressPercent < 100 {
		return StateInProgress, nil
	}

	hasAssessment, err := g.attempts.HasAssessment(courseID)
	if err != nil {
		return StateInProgress, err
	}

	if !hasAssessment {
		// Video-only course: watching everything completes it.
		return StateCompleted, nil
	}

	passed, err := g.attempts.HasPassed(userID, courseID)
	if err != nil {
		return StateInProgress, err
	}

	if passed {
		return StateCompleted, nil
	}

	return StateAssessmentRequired, nil
}

// Complete performs the completion transition. If the certificate was
// already earned it returns the existing timestamp, so clients retrying
// after a flaky response get the same answer. Only the first transition
// issues a certificate and fires the notifier.
func (g *Gate) Complete(userID, courseID uint) (*Result, error) {
	var enr models.Enrollment
	err := g.db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userID, courseID).
		First(&enr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotEnrolled
		}
		return nil, err
	}

	if enr.CertificateEarned {
		return g.existingResult(&enr)
	}

	state, err := g.Evaluate(userID, courseID)
	if err != nil {
		return nil, err
	}

	switch state {
	case StateCompleted:
		// fall through to issuance
	case StateAssessmentRequired:
		return nil, apperrors.ErrAssessmentRequired
	default:
		return nil, apperrors.ErrCourseNotFinished
	}

	now := time.Now()
	certNumber := ""

	err = g.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Enrollment
		if err := database.LockForUpdate(tx).First(&locked, enr.ID).Error; err != nil {
			return err
		}

		// A concurrent call may have issued it already; completed is sticky.
		if locked.CertificateEarned {
			return nil
		}

		res := tx.Model(&models.Enrollment{}).
			Where("id = ? AND certificate_earned = false", enr.ID).
			Updates(map[string]interface{}{
				"certificate_earned":    true,
				"certificate_earned_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		certNumber = "CERT-" + uuid.NewString()
		certificate := models.Certificate{
			UserID:            userID,
			CourseID:          courseID,
			EnrollmentID:      enr.ID,
			CertificateNumber: certNumber,
			IssuedAt:          now,
		}
		return tx.Create(&certificate).Error
	})
	if err != nil {
		return nil, err
	}

	if certNumber != "" {
		log.Printf("[COMPLETION] certificate %s issued for user=%d course=%d", certNumber, userID, courseID)
		if g.notifier != nil {
			g.notifier.CertificateIssued(userID, courseID, certNumber)
		}
		return &Result{Completed: true, State: StateCompleted, CertificateEarnedAt: &now, CertificateNumber: certNumber}, nil
	}

	// Lost the race to a concurrent call; report what it issued.
	if err := g.db.First(&enr, enr.ID).Error; err != nil {
		return nil, err
	}
	return g.existingResult(&enr)
}

func (g *Gate) existingResult(enr *models.Enrollment) (*Result, error) {
	result := &Result{
		Completed:           true,
		State:               StateCompleted,
		CertificateEarnedAt: enr.CertificateEarnedAt,
	}

	var cert models.Certificate
	err := g.db.Where("enrollment_id = ? AND is_deleted = false", enr.ID).First(&cert).Error
	if err == nil {
		result.CertificateNumber = cert.CertificateNumber
	}

	return result, nil
}

// GetCertificates returns all certificates issued to the user.
func (g *Gate) GetCertificates(userID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	err := g.db.Where("user_id = ? AND is_deleted = false", userID).
		Order("issued_at desc").Find(&certificates).Error
	return certificates, err
}
