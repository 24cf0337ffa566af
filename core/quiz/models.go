package quiz

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mentora/core"
)

// Answer labels
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// Difficulties
const (
	DifficultyBasic    = "Basic"
	DifficultyCore     = "Core"
	DifficultyAdvanced = "Advanced"
)

var (
	Options      = []string{OptionA, OptionB, OptionC, OptionD}
	Difficulties = []string{DifficultyBasic, DifficultyCore, DifficultyAdvanced}
)

func IsValidOption(label string) bool {
	for _, opt := range Options {
		if label == opt {
			return true
		}
	}
	return false
}

type Question struct {
	ID            string    `json:"id" db:"id"`
	ExamID        string    `json:"exam_id" db:"exam_id"`
	Text          string    `json:"text" db:"text"`
	OptionA       string    `json:"option_a" db:"option_a"`
	OptionB       string    `json:"option_b" db:"option_b"`
	OptionC       string    `json:"option_c" db:"option_c"`
	OptionD       string    `json:"option_d" db:"option_d"`
	CorrectAnswer string    `json:"correct_answer" db:"correct_answer"`
	Explanation   string    `json:"explanation" db:"explanation"`
	Rationale     string    `json:"rationale" db:"rationale"`
	Category      string    `json:"category" db:"category"`
	Difficulty    string    `json:"difficulty" db:"difficulty"`
	CPDTag        bool      `json:"cpd_tag" db:"cpd_tag"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Filters narrows the question pool of a Session.
type Filters struct {
	Category   string `json:"category,omitempty" validate:"omitempty,notblank"`
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	CPDTag     *bool  `json:"cpd_tag,omitempty"`
}

func (f *Filters) Clean() {
	if f == nil {
		return
	}
	f.Category = core.CleanString(f.Category)
	f.Difficulty = core.CleanString(f.Difficulty)
}

// Answer is one recorded attempt. CorrectAnswer is snapshotted from the question at submission time.
type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

type Session struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	ExamID               string    `json:"exam_id"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	Answers              []Answer  `json:"answers"`
	FlaggedQuestions     []int     `json:"flagged_questions"`
	Completed            bool      `json:"completed"`
	Score                int       `json:"score"`
	Filters              Filters   `json:"filters"`
	Version              int       `json:"-"`
	CreatedAt            time.Time `json:"created_at"` // UTC
	UpdatedAt            time.Time `json:"updated_at"` // UTC
	CompletedAt          null.Time `json:"completed_at"`
}

// RecordAnswer appends an answer for `q` and recomputes the derived counters.
// Re-answering a question appends a new entry.
func (s *Session) RecordAnswer(q Question, selected string) Answer {
	ans := Answer{
		QuestionID:     q.ID,
		SelectedAnswer: selected,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      selected == q.CorrectAnswer,
	}
	s.Answers = append(s.Answers, ans)
	s.recompute()
	return ans
}

func (s *Session) recompute() {
	score := 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			score++
		}
	}
	s.Score = score
	s.CurrentQuestionIndex = len(s.Answers)
}

// ToggleFlag adds `idx` to the flagged set if absent, removes it otherwise.
// The set is kept sorted ascending.
func (s *Session) ToggleFlag(idx int) []int {
	pos := sort.SearchInts(s.FlaggedQuestions, idx)
	if pos < len(s.FlaggedQuestions) && s.FlaggedQuestions[pos] == idx {
		s.FlaggedQuestions = append(s.FlaggedQuestions[:pos], s.FlaggedQuestions[pos+1:]...)
	} else {
		s.FlaggedQuestions = append(s.FlaggedQuestions, 0)
		copy(s.FlaggedQuestions[pos+1:], s.FlaggedQuestions[pos:])
		s.FlaggedQuestions[pos] = idx
	}
	return s.FlaggedQuestions
}

// Complete marks the session completed. It returns false if it already was.
func (s *Session) Complete(at time.Time) bool {
	if s.Completed {
		return false
	}
	s.Completed = true
	s.CompletedAt = null.TimeFrom(at)
	return true
}

// Normalize restores the ordering of the flagged set and guards against nil slices.
func (s *Session) Normalize() {
	if s.Answers == nil {
		s.Answers = []Answer{}
	}
	if s.FlaggedQuestions == nil {
		s.FlaggedQuestions = []int{}
	}
	sort.Ints(s.FlaggedQuestions)
}

// StartSession contains information needed to start or resume a Session.
type StartSession struct {
	UserID  string   `json:"-"`
	ExamID  string   `json:"exam_id" validate:"required,notblank"`
	Filters *Filters `json:"filters"`
}

func (ss *StartSession) Validate(validate *validator.Validate) error {
	ss.ExamID = core.CleanString(ss.ExamID)
	ss.Filters.Clean()
	return validate.Struct(ss)
}

// SubmitAnswer is checked by the Service, after the session and question lookups.
type SubmitAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
}

type ToggleFlag struct {
	QuestionIndex *int `json:"question_index"`
}

// NewQuestion contains information needed to add a Question to the bank.
type NewQuestion struct {
	ExamID        string `json:"exam_id" validate:"required,notblank"`
	Text          string `json:"text" validate:"required,notblank"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required,option"`
	Explanation   string `json:"explanation"`
	Rationale     string `json:"rationale"`
	Category      string `json:"category" validate:"required,notblank"`
	Difficulty    string `json:"difficulty" validate:"required,difficulty"`
	CPDTag        bool   `json:"cpd_tag"`
}

func (nq *NewQuestion) Clean() {
	nq.ExamID = core.CleanString(nq.ExamID)
	nq.Text = core.CleanString(nq.Text)
	nq.CorrectAnswer = core.CleanString(nq.CorrectAnswer)
	nq.Category = core.CleanString(nq.Category)
	nq.Difficulty = core.CleanString(nq.Difficulty)
}

type NewQuestions struct {
	Questions []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (nqs *NewQuestions) Validate(validate *validator.Validate) error {
	for i := range nqs.Questions {
		nqs.Questions[i].Clean()
	}
	return validate.Struct(nqs)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
type UpdateQuestion struct {
	ExamID        *string `json:"exam_id" validate:"omitempty,notblank"`
	Text          *string `json:"text" validate:"omitempty,notblank"`
	OptionA       *string `json:"option_a"`
	OptionB       *string `json:"option_b"`
	OptionC       *string `json:"option_c"`
	OptionD       *string `json:"option_d"`
	CorrectAnswer *string `json:"correct_answer" validate:"omitempty,option"`
	Explanation   *string `json:"explanation"`
	Rationale     *string `json:"rationale"`
	Category      *string `json:"category" validate:"omitempty,notblank"`
	Difficulty    *string `json:"difficulty" validate:"omitempty,difficulty"`
	CPDTag        *bool   `json:"cpd_tag"`
}

func (uq *UpdateQuestion) Validate(validate *validator.Validate) error { return validate.Struct(uq) }

// apply copies the provided fields of `uq` onto `q`.
func (uq UpdateQuestion) apply(q *Question) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = core.CleanString(*src)
		}
	}
	set(&q.ExamID, uq.ExamID)
	set(&q.Text, uq.Text)
	set(&q.OptionA, uq.OptionA)
	set(&q.OptionB, uq.OptionB)
	set(&q.OptionC, uq.OptionC)
	set(&q.OptionD, uq.OptionD)
	set(&q.CorrectAnswer, uq.CorrectAnswer)
	set(&q.Explanation, uq.Explanation)
	set(&q.Rationale, uq.Rationale)
	set(&q.Category, uq.Category)
	set(&q.Difficulty, uq.Difficulty)
	if uq.CPDTag != nil {
		q.CPDTag = *uq.CPDTag
	}
}

// QueryFilter applies AND on the provided fields.
type QueryFilter struct {
	ExamID     string
	Category   string
	Difficulty string
	CPDTag     *bool
}

func (qf *QueryFilter) Clean() {
	qf.ExamID = core.CleanString(qf.ExamID)
	qf.Category = core.CleanString(qf.Category)
	qf.Difficulty = core.CleanString(qf.Difficulty)
}

// Match reports whether `q` satisfies the filter.
func (qf QueryFilter) Match(q Question) bool {
	return (qf.ExamID == "" || q.ExamID == qf.ExamID) &&
		(qf.Category == "" || q.Category == qf.Category) &&
		(qf.Difficulty == "" || q.Difficulty == qf.Difficulty) &&
		(qf.CPDTag == nil || q.CPDTag == *qf.CPDTag)
}
