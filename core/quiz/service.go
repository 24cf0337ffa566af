package quiz

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
)

var (
	// errors
	ErrSessionNotFound  = core.NewNotFoundError("session")
	ErrQuestionNotFound = core.NewNotFoundError("question")
	ErrSessionConflict  = core.NewConflictError("session")

	ErrInvalidSessionOrIndex = core.NewValidationError(errors.New("invalid session or question index"))

	questionOrderingFields = []string{"created_at", "updated_at", "category", "difficulty"}
)

type (
	SessionRepository interface {
		// FindOrCreateActiveSession returns the incomplete session of (sess.UserID, sess.ExamID),
		// creating `sess` when there is none. Concurrent callers all get the same session.
		FindOrCreateActiveSession(ctx context.Context, sess Session) (Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		// UpdateSession stores `sess` only if sess.Version matches the stored version, else ErrSessionConflict.
		UpdateSession(ctx context.Context, sess Session) (Session, error)
	}

	QuestionRepository interface {
		CreateQuestions(ctx context.Context, questions []Question) ([]Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		// QueryQuestions defaults to created_at ascending when no ordering is given.
		QueryQuestions(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Question, error)
	}

	Service interface {
		StartSession(ctx context.Context, ss StartSession) (Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		SessionQuestions(ctx context.Context, id string) ([]Question, error)
		SubmitAnswer(ctx context.Context, sessionID string, sa SubmitAnswer) (Session, error)
		ToggleFlag(ctx context.Context, sessionID string, tf ToggleFlag) ([]int, error)
		CompleteSession(ctx context.Context, sessionID string) (Session, error)

		AddQuestions(ctx context.Context, nqs []NewQuestion) ([]Question, error)
		UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error)
		QueryQuestions(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Question, error)
	}

	service struct {
		sessions  SessionRepository
		questions QuestionRepository
	}
)

var _ Service = (*service)(nil)

func NewService(sessions SessionRepository, questions QuestionRepository) Service {
	return &service{
		sessions:  sessions,
		questions: questions,
	}
}

func (svc *service) StartSession(ctx context.Context, ss StartSession) (Session, error) {
	userID := core.CleanString(ss.UserID)
	examID := core.CleanString(ss.ExamID)
	if userID == "" {
		return Session{}, core.NewFieldError("user_id", "this field is required")
	}
	if examID == "" {
		return Session{}, core.NewFieldError("exam_id", "this field is required")
	}

	var filters Filters
	if ss.Filters != nil {
		filters = *ss.Filters
		filters.Clean()
		if filters.Difficulty != "" && !isValidDifficulty(filters.Difficulty) {
			return Session{}, core.NewFieldError("difficulty", "invalid difficulty")
		}
	}

	now := core.NowFunc()
	sess, err := svc.sessions.FindOrCreateActiveSession(ctx, Session{
		UserID:           userID,
		ExamID:           examID,
		Answers:          []Answer{},
		FlaggedQuestions: []int{},
		Filters:          filters,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return Session{}, errors.Wrap(err, "finding or creating active session")
	}
	return sess, nil
}

func (svc *service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.sessions.GetSession(ctx, core.CleanString(id))
}

func (svc *service) SessionQuestions(ctx context.Context, id string) ([]Question, error) {
	sess, err := svc.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return svc.questions.QueryQuestions(ctx, QueryFilter{
		ExamID:     sess.ExamID,
		Category:   sess.Filters.Category,
		Difficulty: sess.Filters.Difficulty,
		CPDTag:     sess.Filters.CPDTag,
	})
}

func (svc *service) SubmitAnswer(ctx context.Context, sessionID string, sa SubmitAnswer) (Session, error) {
	sess, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	q, err := svc.questions.GetQuestion(ctx, core.CleanString(sa.QuestionID))
	if err != nil {
		return Session{}, err
	}

	selected := core.CleanString(sa.SelectedAnswer)
	if selected == "" {
		return Session{}, core.NewFieldError("selected_answer", "this field is required")
	}
	if !IsValidOption(selected) {
		return Session{}, core.NewFieldError("selected_answer", "selected_answer must be one of A, B, C, D")
	}

	sess.RecordAnswer(q, selected)
	sess.UpdatedAt = core.NowFunc()
	return svc.sessions.UpdateSession(ctx, sess)
}

func (svc *service) ToggleFlag(ctx context.Context, sessionID string, tf ToggleFlag) ([]int, error) {
	if tf.QuestionIndex == nil || *tf.QuestionIndex < 0 {
		return nil, ErrInvalidSessionOrIndex
	}
	sess, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return nil, ErrInvalidSessionOrIndex
		}
		return nil, err
	}

	sess.ToggleFlag(*tf.QuestionIndex)
	sess.UpdatedAt = core.NowFunc()
	sess, err = svc.sessions.UpdateSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	return sess.FlaggedQuestions, nil
}

func (svc *service) CompleteSession(ctx context.Context, sessionID string) (Session, error) {
	sess, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	now := core.NowFunc()
	if !sess.Complete(now) {
		return sess, nil
	}
	sess.UpdatedAt = now
	return svc.sessions.UpdateSession(ctx, sess)
}

func (svc *service) AddQuestions(ctx context.Context, nqs []NewQuestion) ([]Question, error) {
	if len(nqs) == 0 {
		return nil, core.NewFieldError("questions", "at least one question is required")
	}

	now := core.NowFunc()
	questions := make([]Question, 0, len(nqs))
	for i, nq := range nqs {
		nq.Clean()
		if !IsValidOption(nq.CorrectAnswer) {
			return nil, core.NewFieldError("questions["+strconv.Itoa(i)+"].correct_answer", "invalid answer label")
		}
		if !isValidDifficulty(nq.Difficulty) {
			return nil, core.NewFieldError("questions["+strconv.Itoa(i)+"].difficulty", "invalid difficulty")
		}
		questions = append(questions, Question{
			ExamID:        nq.ExamID,
			Text:          nq.Text,
			OptionA:       nq.OptionA,
			OptionB:       nq.OptionB,
			OptionC:       nq.OptionC,
			OptionD:       nq.OptionD,
			CorrectAnswer: nq.CorrectAnswer,
			Explanation:   nq.Explanation,
			Rationale:     nq.Rationale,
			Category:      nq.Category,
			Difficulty:    nq.Difficulty,
			CPDTag:        nq.CPDTag,
			// keep insertion order stable under created_at ordering
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			UpdatedAt: now,
		})
	}
	return svc.questions.CreateQuestions(ctx, questions)
}

func (svc *service) UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error) {
	q, err := svc.questions.GetQuestion(ctx, core.CleanString(id))
	if err != nil {
		return Question{}, err
	}
	uq.apply(&q)
	if !IsValidOption(q.CorrectAnswer) {
		return Question{}, core.NewFieldError("correct_answer", "invalid answer label")
	}
	if !isValidDifficulty(q.Difficulty) {
		return Question{}, core.NewFieldError("difficulty", "invalid difficulty")
	}
	q.UpdatedAt = core.NowFunc()
	return svc.questions.UpdateQuestion(ctx, q)
}

func (svc *service) QueryQuestions(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Question, error) {
	filter.Clean()
	return svc.questions.QueryQuestions(ctx, filter, core.CleanOrderings(orderings, questionOrderingFields...)...)
}

func isValidDifficulty(d string) bool {
	for _, diff := range Difficulties {
		if d == diff {
			return true
		}
	}
	return false
}
