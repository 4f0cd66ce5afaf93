package payment

import (
	"errors"
	"lms/apperrors"
	"lms/models"
	"lms/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-gateway-secret"

// fakeGateway hands out deterministic order ids without network calls.
type fakeGateway struct {
	nextOrderID string
	fail        bool
	calls       int
}

func (f *fakeGateway) CreateOrder(amount uint, currency, receipt string) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("connection refused")
	}
	return f.nextOrderID, nil
}

func seedPaidCourse(t *testing.T, db *gorm.DB) *models.Course {
	t.Helper()
	course := models.Course{Title: "Options Trading Masterclass", Price: 499, Currency: "INR", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func TestCreateOrderFreeCourse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := models.Course{Title: "Intro", Price: 0, Status: "ACTIVE", IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_1"}, testSecret)

	_, err := ledger.CreateOrder(1, course.ID)
	assert.Equal(t, apperrors.ErrCourseFree, err)
}

func TestCreateOrderPersistsGatewayOrderID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_abc"}, testSecret)

	payment, err := ledger.CreateOrder(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_abc", payment.GatewayOrderID)
	assert.Equal(t, models.PaymentStatusCreated, payment.Status)
	assert.Equal(t, uint(499), payment.Amount)
}

func TestCreateOrderGatewayDownLeavesNoRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{fail: true}, testSecret)

	_, err := ledger.CreateOrder(1, course.ID)
	assert.Equal(t, apperrors.ErrGatewayUnavailable, err)

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Zero(t, count)
}

func TestVerifyAndCommitValidSignature(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_ok"}, testSecret)
	_, err := ledger.CreateOrder(7, course.ID)
	require.NoError(t, err)

	sig := ComputeSignature(testSecret, "order_ok", "pay_123")
	payment, err := ledger.VerifyAndCommit(7, course.ID, "order_ok", "pay_123", sig)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.NotNil(t, payment.PaidAt)
	assert.True(t, ledger.HasPaid(7, course.ID))

	// Enrollment must exist now
	var enrollment models.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", 7, course.ID).First(&enrollment).Error)
	assert.Equal(t, 0, enrollment.Progress)
}

func TestVerifyAndCommitTamperedSignature(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_bad"}, testSecret)
	_, err := ledger.CreateOrder(7, course.ID)
	require.NoError(t, err)

	_, err = ledger.VerifyAndCommit(7, course.ID, "order_bad", "pay_123", "deadbeef")
	assert.Equal(t, apperrors.ErrInvalidSignature, err)

	var payment models.Payment
	require.NoError(t, db.Where("gateway_order_id = ?", "order_bad").First(&payment).Error)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Equal(t, models.FailureInvalidSignature, payment.FailureReason)

	// No enrollment may come out of a failed verification
	var count int64
	db.Model(&models.Enrollment{}).Count(&count)
	assert.Zero(t, count)
}

func TestVerifyAndCommitDuplicateCallbackIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_dup"}, testSecret)
	_, err := ledger.CreateOrder(7, course.ID)
	require.NoError(t, err)

	sig := ComputeSignature(testSecret, "order_dup", "pay_9")
	first, err := ledger.VerifyAndCommit(7, course.ID, "order_dup", "pay_9", sig)
	require.NoError(t, err)

	second, err := ledger.VerifyAndCommit(7, course.ID, "order_dup", "pay_9", sig)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.PaymentStatusPaid, second.Status)

	var enrollments int64
	db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", 7, course.ID).Count(&enrollments)
	assert.Equal(t, int64(1), enrollments)
}

func TestSecondOrderAfterPaidIsRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	gw := &fakeGateway{nextOrderID: "order_first"}
	ledger := NewLedger(db, gw, testSecret)
	_, err := ledger.CreateOrder(3, course.ID)
	require.NoError(t, err)

	sig := ComputeSignature(testSecret, "order_first", "pay_1")
	_, err = ledger.VerifyAndCommit(3, course.ID, "order_first", "pay_1", sig)
	require.NoError(t, err)

	gw.nextOrderID = "order_second"
	_, err = ledger.CreateOrder(3, course.ID)
	assert.Equal(t, apperrors.ErrAlreadyPaid, err)

	// At most one PAID payment per pair
	var paid int64
	db.Model(&models.Payment{}).Where("user_id = ? AND course_id = ? AND status = ?", 3, course.ID, models.PaymentStatusPaid).Count(&paid)
	assert.Equal(t, int64(1), paid)
}

func TestFailedOrderIsRetryableWithFreshOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	gw := &fakeGateway{nextOrderID: "order_f1"}
	ledger := NewLedger(db, gw, testSecret)
	_, err := ledger.CreateOrder(4, course.ID)
	require.NoError(t, err)

	_, err = ledger.VerifyAndCommit(4, course.ID, "order_f1", "pay_x", "wrong")
	assert.Equal(t, apperrors.ErrInvalidSignature, err)

	// The failed payment is terminal; a brand-new order works
	gw.nextOrderID = "order_f2"
	payment, err := ledger.CreateOrder(4, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_f2", payment.GatewayOrderID)

	sig := ComputeSignature(testSecret, "order_f2", "pay_y")
	_, err = ledger.VerifyAndCommit(4, course.ID, "order_f2", "pay_y", sig)
	require.NoError(t, err)
	assert.True(t, ledger.HasPaid(4, course.ID))
}

func TestMarkFailedOnlyFromCreatedOrAttempted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_m"}, testSecret)
	_, err := ledger.CreateOrder(5, course.ID)
	require.NoError(t, err)

	require.NoError(t, ledger.MarkAttempted("order_m"))
	require.NoError(t, ledger.MarkFailed("order_m", models.FailureGatewayDeclined))

	// Terminal: a second failure report is illegal
	err = ledger.MarkFailed("order_m", models.FailureGatewayDeclined)
	assert.Equal(t, apperrors.ErrIllegalTransition, err)
}

func TestMarkRefundedOnlyFromPaid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_r"}, testSecret)
	_, err := ledger.CreateOrder(6, course.ID)
	require.NoError(t, err)

	err = ledger.MarkRefunded("order_r", 499)
	assert.Equal(t, apperrors.ErrIllegalTransition, err)

	sig := ComputeSignature(testSecret, "order_r", "pay_r")
	_, err = ledger.VerifyAndCommit(6, course.ID, "order_r", "pay_r", sig)
	require.NoError(t, err)

	require.NoError(t, ledger.MarkRefunded("order_r", 499))

	var payment models.Payment
	require.NoError(t, db.Where("gateway_order_id = ?", "order_r").First(&payment).Error)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	assert.Equal(t, uint(499), payment.RefundAmount)
	assert.NotNil(t, payment.RefundedAt)
}

func TestGetStatusProjection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_s"}, testSecret)

	status, err := ledger.GetStatus(8, course.ID)
	require.NoError(t, err)
	assert.False(t, status.IsFree)
	assert.False(t, status.HasPaid)
	assert.False(t, status.CanAccess)

	_, err = ledger.CreateOrder(8, course.ID)
	require.NoError(t, err)
	sig := ComputeSignature(testSecret, "order_s", "pay_s")
	_, err = ledger.VerifyAndCommit(8, course.ID, "order_s", "pay_s", sig)
	require.NoError(t, err)

	status, err = ledger.GetStatus(8, course.ID)
	require.NoError(t, err)
	assert.True(t, status.HasPaid)
	assert.True(t, status.CanAccess)
}

func TestVerifySignatureConstantTimeHelpers(t *testing.T) {
	sig := ComputeSignature("secret", "order_1", "pay_1")
	assert.True(t, VerifySignature("secret", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_1", "pay_2", sig))
	assert.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_1", "pay_1", sig+"00"))
}

func TestSecondOrderCannotCommitAfterPaid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	gw := &fakeGateway{nextOrderID: "order_a"}
	ledger := NewLedger(db, gw, testSecret)

	// Two outstanding orders for the same pair, both unpaid
	_, err := ledger.CreateOrder(9, course.ID)
	require.NoError(t, err)
	gw.nextOrderID = "order_b"
	_, err = ledger.CreateOrder(9, course.ID)
	require.NoError(t, err)

	sigA := ComputeSignature(testSecret, "order_a", "pay_a")
	_, err = ledger.VerifyAndCommit(9, course.ID, "order_a", "pay_a", sigA)
	require.NoError(t, err)

	// The second order carries its own valid signature but must not commit
	sigB := ComputeSignature(testSecret, "order_b", "pay_b")
	_, err = ledger.VerifyAndCommit(9, course.ID, "order_b", "pay_b", sigB)
	assert.Equal(t, apperrors.ErrAlreadyPaid, err)

	var paidCount int64
	db.Model(&models.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", 9, course.ID, models.PaymentStatusPaid).
		Count(&paidCount)
	assert.Equal(t, int64(1), paidCount)

	var loser models.Payment
	require.NoError(t, db.Where("gateway_order_id = ?", "order_b").First(&loser).Error)
	assert.Equal(t, models.PaymentStatusCreated, loser.Status)
}

func TestDuplicatePaidRowRejectedByDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	first := models.Payment{UserID: 10, CourseID: course.ID, Amount: 499,
		GatewayOrderID: "order_d1", Status: models.PaymentStatusPaid}
	require.NoError(t, db.Create(&first).Error)

	second := models.Payment{UserID: 10, CourseID: course.ID, Amount: 499,
		GatewayOrderID: "order_d2", Status: models.PaymentStatusPaid}
	require.Error(t, db.Create(&second).Error)

	// Non-PAID rows for the pair are still allowed
	third := models.Payment{UserID: 10, CourseID: course.ID, Amount: 499,
		GatewayOrderID: "order_d3", Status: models.PaymentStatusFailed}
	require.NoError(t, db.Create(&third).Error)
}

func TestSignatureMismatchWriteFailureSurfaces(t *testing.T) {
	db := testutil.SetupTestDB(t)
	course := seedPaidCourse(t, db)

	ledger := NewLedger(db, &fakeGateway{nextOrderID: "order_w"}, testSecret)
	payment, err := ledger.CreateOrder(11, course.ID)
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TRIGGER refuse_failed_write BEFORE UPDATE ON payments
		WHEN NEW.status = 'FAILED' BEGIN SELECT RAISE(ABORT, 'write refused'); END`).Error)

	_, err = ledger.VerifyAndCommit(11, course.ID, "order_w", "pay_w", "not-a-signature")
	require.Error(t, err)
	assert.NotEqual(t, apperrors.ErrInvalidSignature, err)

	var current models.Payment
	require.NoError(t, db.First(&current, payment.ID).Error)
	assert.Equal(t, models.PaymentStatusCreated, current.Status)
}
