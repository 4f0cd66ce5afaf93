package assessment

import (
	"encoding/json"
	"lms/apperrors"
	"lms/models"
	"math"
	"time"

	"gorm.io/gorm"
)

// Log is the append-only record of assessment attempts. Attempts are
// graded on the way in and never touched again.
type Log struct {
	db          *gorm.DB
	passPercent int
}

func NewLog(db *gorm.DB, passPercent int) *Log {
	return &Log{db: db, passPercent: passPercent}
}

// QuestionView is a question as shown to a student: options carry no
// correctness flag.
type QuestionView struct {
	ID           uint         `json:"id"`
	QuestionText string       `json:"question_text"`
	Options      []OptionView `json:"options"`
}

type OptionView struct {
	ID         uint   `json:"id"`
	OptionText string `json:"option_text"`
}

// Answer is one submitted answer: the options the student selected for a
// question.
type Answer struct {
	QuestionID        uint   `json:"questionId"`
	SelectedOptionIDs []uint `json:"selectedOptionIds"`
}

// HasAssessment reports whether the course has at least one question.
func (l *Log) HasAssessment(courseID uint) (bool, error) {
	var count int64
	err := l.db.Model(&models.AssessmentQuestion{}).
		Where("course_id = ? AND is_deleted = false", courseID).
		Count(&count).Error
	return count > 0, err
}

// GetQuestions returns the course's question bank stripped of answers.
func (l *Log) GetQuestions(courseID uint) ([]QuestionView, error) {
	var questions []models.AssessmentQuestion
	err := l.db.Where("course_id = ? AND is_deleted = false", courseID).
		Order("order_index asc").Find(&questions).Error
	if err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		return nil, apperrors.ErrNoAssessment
	}

	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		var options []models.AssessmentOption
		err := l.db.Where("question_id = ? AND is_deleted = false", q.ID).
			Order("order_index asc").Find(&options).Error
		if err != nil {
			return nil, err
		}

		optionViews := make([]OptionView, len(options))
		for j, opt := range options {
			optionViews[j] = OptionView{ID: opt.ID, OptionText: opt.OptionText}
		}

		views[i] = QuestionView{ID: q.ID, QuestionText: q.QuestionText, Options: optionViews}
	}

	return views, nil
}

// RecordAttempt grades the submitted answers against the question bank
// and appends an immutable attempt. A question counts as correct only if
// the selected set matches the correct set exactly.
func (l *Log) RecordAttempt(userID, courseID uint, answers []Answer) (*models.AssessmentAttempt, error) {
	var questions []models.AssessmentQuestion
	err := l.db.Where("course_id = ? AND is_deleted = false", courseID).Find(&questions).Error
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperrors.ErrNoAssessment
	}

	answersByQuestion := make(map[uint][]uint, len(answers))
	for _, a := range answers {
		answersByQuestion[a.QuestionID] = a.SelectedOptionIDs
	}

	correctCount := 0
	for _, q := range questions {
		var correctOptions []models.AssessmentOption
		err := l.db.Where("question_id = ? AND is_correct = true AND is_deleted = false", q.ID).
			Find(&correctOptions).Error
		if err != nil {
			return nil, err
		}

		if isExactMatch(answersByQuestion[q.ID], correctOptions) {
			correctCount++
		}
	}

	score := int(math.Round(float64(correctCount) / float64(len(questions)) * 100))
	passed := score >= l.passPercent

	var attemptCount int64
	l.db.Model(&models.AssessmentAttempt{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&attemptCount)

	selectedJSON, _ := json.Marshal(answers)

	attempt := models.AssessmentAttempt{
		UserID:          userID,
		CourseID:        courseID,
		SelectedOptions: string(selectedJSON),
		Score:           score,
		Passed:          passed,
		AttemptNumber:   int(attemptCount) + 1,
		CompletedAt:     time.Now(),
	}

	if err := l.db.Create(&attempt).Error; err != nil {
		return nil, err
	}

	return &attempt, nil
}

// HasPassed reports whether any attempt for the pair passed.
func (l *Log) HasPassed(userID, courseID uint) (bool, error) {
	var count int64
	err := l.db.Model(&models.AssessmentAttempt{}).
		Where("user_id = ? AND course_id = ? AND passed = true", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// ListAttempts returns the full attempt history for the pair, oldest first.
func (l *Log) ListAttempts(userID, courseID uint) ([]models.AssessmentAttempt, error) {
	var attempts []models.AssessmentAttempt
	err := l.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at asc").Find(&attempts).Error
	return attempts, err
}

func isExactMatch(selected []uint, correct []models.AssessmentOption) bool {
	correctIDs := make(map[uint]bool, len(correct))
	for _, opt := range correct {
		correctIDs[opt.ID] = true
	}

	seen := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if !correctIDs[id] {
			return false
		}
		seen[id] = true
	}
	return len(seen) == len(correctIDs) && len(correctIDs) > 0
}
