package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/quiz"
)

type questionRepository struct {
	db *questionTable
}

var _ quiz.QuestionRepository = (*questionRepository)(nil)

func NewQuestionRepository(db *DB) quiz.QuestionRepository {
	return &questionRepository{db: db.question}
}

func (repo *questionRepository) CreateQuestions(_ context.Context, questions []quiz.Question) ([]quiz.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	created := make([]quiz.Question, 0, len(questions))
	for _, q := range questions {
		q.ID = uuid.New().String()
		stored := q
		repo.db.table[q.ID] = &stored
		created = append(created, q)
	}
	return created, nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id string) (quiz.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return *q, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (repo *questionRepository) UpdateQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[q.ID]; !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	stored := q
	repo.db.table[q.ID] = &stored
	return q, nil
}

func (repo *questionRepository) QueryQuestions(_ context.Context, filter quiz.QueryFilter, orderings ...core.DBOrdering) ([]quiz.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	questions := make([]quiz.Question, 0)
	for _, q := range repo.db.table {
		if filter.Match(*q) {
			questions = append(questions, *q)
		}
	}

	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	sort.SliceStable(questions, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareQuestions(questions[i], questions[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, nil
}

func compareQuestions(a, b quiz.Question, field string) int {
	switch field {
	case "created_at":
		return compareTimes(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	case "updated_at":
		return compareTimes(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano())
	case "category":
		return strings.Compare(a.Category, b.Category)
	case "difficulty":
		return strings.Compare(a.Difficulty, b.Difficulty)
	}
	return 0
}

func compareTimes(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type sessionRepository struct {
	db *sessionTable
}

var _ quiz.SessionRepository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) quiz.SessionRepository {
	return &sessionRepository{db: db.session}
}

func copySession(sess quiz.Session) quiz.Session {
	sess.Answers = append([]quiz.Answer{}, sess.Answers...)
	sess.FlaggedQuestions = append([]int{}, sess.FlaggedQuestions...)
	if sess.Filters.CPDTag != nil {
		sess.Filters.CPDTag = core.BoolPtr(*sess.Filters.CPDTag)
	}
	return sess
}

func (repo *sessionRepository) FindOrCreateActiveSession(_ context.Context, sess quiz.Session) (quiz.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.table {
		if s.UserID == sess.UserID && s.ExamID == sess.ExamID && !s.Completed {
			return copySession(*s), nil
		}
	}

	sess.ID = uuid.New().String()
	sess.Version = 1
	sess.Normalize()
	stored := copySession(sess)
	repo.db.table[sess.ID] = &stored
	return sess, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (quiz.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return copySession(*s), nil
	}
	return quiz.Session{}, quiz.ErrSessionNotFound
}

func (repo *sessionRepository) UpdateSession(_ context.Context, sess quiz.Session) (quiz.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	curr, ok := repo.db.table[sess.ID]
	if !ok {
		return quiz.Session{}, quiz.ErrSessionNotFound
	}
	if curr.Version != sess.Version {
		return quiz.Session{}, quiz.ErrSessionConflict
	}

	sess.Version++
	sess.Normalize()
	stored := copySession(sess)
	repo.db.table[sess.ID] = &stored
	return sess, nil
}
