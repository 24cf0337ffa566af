// Package testutil holds fixtures shared by the API, CLI and storage tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/quiz"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
	"github.com/trezcool/mentora/storage/database"
)

// NewValidator returns a validator with every custom tag and translation of the app registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	sponsorship.InitValidators(validate, translator)
	return validate, translator
}

// OpenDB returns a migrated in-memory sqlite database, closed at the end of the test.
func OpenDB(t *testing.T) *sqlx.DB {
	db, err := database.OpenSqliteMemory()
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{user.RoleUser}
	}
	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateQuestions adds one question per correct answer label, in order, to the bank of `examID`.
func CreateQuestions(t *testing.T, repo quiz.QuestionRepository, examID, category string, correctAnswers ...string) []quiz.Question {
	now := time.Now().UTC()
	questions := make([]quiz.Question, 0, len(correctAnswers))
	for i, answer := range correctAnswers {
		questions = append(questions, quiz.Question{
			ExamID:        examID,
			Text:          "A 45-year-old presents with chest pain. What is the next step?",
			OptionA:       "ECG",
			OptionB:       "Chest X-ray",
			OptionC:       "Troponin",
			OptionD:       "Discharge",
			CorrectAnswer: answer,
			Category:      category,
			Difficulty:    quiz.DifficultyCore,
			CreatedAt:     now.Add(time.Duration(i) * time.Microsecond),
			UpdatedAt:     now,
		})
	}
	questions, err := repo.CreateQuestions(context.Background(), questions)
	if err != nil {
		t.Fatalf("CreateQuestions() failed: %v", err)
	}
	return questions
}

// FakeEmbedder embeds texts on a few fixed axes, by keyword. Unknown texts get the last axis.
type FakeEmbedder struct {
	mu    sync.Mutex
	Axes  []string
	Err   error
	Calls int
}

func NewFakeEmbedder(axes ...string) *FakeEmbedder {
	return &FakeEmbedder{Axes: axes}
}

func (e *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	vec := make([]float32, len(e.Axes)+1)
	text = strings.ToLower(text)
	matched := false
	for i, axis := range e.Axes {
		if strings.Contains(text, strings.ToLower(axis)) {
			vec[i] = 1
			matched = true
		}
	}
	if !matched {
		vec[len(e.Axes)] = 1
	}
	return vec, nil
}

// SetErr makes every following call fail with `err` (nil restores).
func (e *FakeEmbedder) SetErr(err error) {
	e.mu.Lock()
	e.Err = err
	e.mu.Unlock()
}
