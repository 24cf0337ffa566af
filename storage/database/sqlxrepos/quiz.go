package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/quiz"
)

const questionColumns = `id, exam_id, text, option_a, option_b, option_c, option_d, correct_answer,
	explanation, rationale, category, difficulty, cpd_tag, created_at, updated_at`

// questionOrderColumns whitelists the columns QueryQuestions may order by.
var questionOrderColumns = []string{"created_at", "updated_at", "category", "difficulty"}

type questionRepository struct {
	exec core.DBExecutor
}

var _ quiz.QuestionRepository = (*questionRepository)(nil)

func NewQuestionRepository(exec core.DBExecutor) quiz.QuestionRepository {
	return &questionRepository{exec: exec}
}

func (repo questionRepository) CreateQuestions(ctx context.Context, questions []quiz.Question) ([]quiz.Question, error) {
	q := repo.exec.Rebind(`INSERT INTO plab_questions (` + questionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	created := make([]quiz.Question, 0, len(questions))
	for _, qn := range questions {
		qn.ID = uuid.New().String()
		qn.CreatedAt = qn.CreatedAt.UTC()
		qn.UpdatedAt = qn.UpdatedAt.UTC()
		_, err := repo.exec.ExecContext(
			ctx, q,
			qn.ID, qn.ExamID, qn.Text, qn.OptionA, qn.OptionB, qn.OptionC, qn.OptionD, qn.CorrectAnswer,
			qn.Explanation, qn.Rationale, qn.Category, qn.Difficulty, qn.CPDTag, qn.CreatedAt, qn.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "inserting question")
		}
		created = append(created, qn)
	}
	return created, nil
}

func (repo questionRepository) GetQuestion(ctx context.Context, id string) (quiz.Question, error) {
	var qn quiz.Question
	q := repo.exec.Rebind("SELECT " + questionColumns + " FROM plab_questions WHERE id = ?")
	if err := repo.exec.GetContext(ctx, &qn, q, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Question{}, quiz.ErrQuestionNotFound
		}
		return quiz.Question{}, errors.Wrap(err, "getting question")
	}
	qn.CreatedAt = qn.CreatedAt.UTC()
	qn.UpdatedAt = qn.UpdatedAt.UTC()
	return qn, nil
}

func (repo questionRepository) UpdateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	q := repo.exec.Rebind(`UPDATE plab_questions SET
		exam_id = ?, text = ?, option_a = ?, option_b = ?, option_c = ?, option_d = ?, correct_answer = ?,
		explanation = ?, rationale = ?, category = ?, difficulty = ?, cpd_tag = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.exec.ExecContext(
		ctx, q,
		qn.ExamID, qn.Text, qn.OptionA, qn.OptionB, qn.OptionC, qn.OptionD, qn.CorrectAnswer,
		qn.Explanation, qn.Rationale, qn.Category, qn.Difficulty, qn.CPDTag, qn.UpdatedAt.UTC(), qn.ID,
	)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "updating question")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return qn, nil
}

func (repo questionRepository) QueryQuestions(ctx context.Context, filter quiz.QueryFilter, orderings ...core.DBOrdering) ([]quiz.Question, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ExamID != "" {
		conds = append(conds, "exam_id = ?")
		args = append(args, filter.ExamID)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Difficulty != "" {
		conds = append(conds, "difficulty = ?")
		args = append(args, filter.Difficulty)
	}
	if filter.CPDTag != nil {
		conds = append(conds, "cpd_tag = ?")
		args = append(args, *filter.CPDTag)
	}

	q := "SELECT " + questionColumns + " FROM plab_questions"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	orderings = core.CleanOrderings(orderings, questionOrderColumns...)
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	orderList := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		orderList = append(orderList, ord.String())
	}
	orderList = append(orderList, "id ASC")
	q += " ORDER BY " + strings.Join(orderList, ", ")

	questions := make([]quiz.Question, 0)
	if err := repo.exec.SelectContext(ctx, &questions, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	for i := range questions {
		questions[i].CreatedAt = questions[i].CreatedAt.UTC()
		questions[i].UpdatedAt = questions[i].UpdatedAt.UTC()
	}
	return questions, nil
}

const sessionColumns = `id, user_id, exam_id, current_question_index, answers, flagged_questions, completed, score,
	filters, version, created_at, updated_at, completed_at`

type sessionRow struct {
	ID                   string         `db:"id"`
	UserID               string         `db:"user_id"`
	ExamID               string         `db:"exam_id"`
	CurrentQuestionIndex int            `db:"current_question_index"`
	Answers              types.JSONText `db:"answers"`
	FlaggedQuestions     types.JSONText `db:"flagged_questions"`
	Completed            bool           `db:"completed"`
	Score                int            `db:"score"`
	Filters              types.JSONText `db:"filters"`
	Version              int            `db:"version"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
	CompletedAt          null.Time      `db:"completed_at"`
}

type sessionRepository struct {
	exec core.DBExecutor
}

var _ quiz.SessionRepository = (*sessionRepository)(nil)

func NewSessionRepository(exec core.DBExecutor) quiz.SessionRepository {
	return &sessionRepository{exec: exec}
}

func (repo sessionRepository) unrow(r sessionRow) (quiz.Session, error) {
	sess := quiz.Session{
		ID:                   r.ID,
		UserID:               r.UserID,
		ExamID:               r.ExamID,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		Completed:            r.Completed,
		Score:                r.Score,
		Version:              r.Version,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
		CompletedAt:          r.CompletedAt,
	}
	if err := scanJSON(r.Answers, &sess.Answers); err != nil {
		return quiz.Session{}, err
	}
	if err := scanJSON(r.FlaggedQuestions, &sess.FlaggedQuestions); err != nil {
		return quiz.Session{}, err
	}
	if err := scanJSON(r.Filters, &sess.Filters); err != nil {
		return quiz.Session{}, err
	}
	sess.Normalize()
	return sess, nil
}

// jsonColumns encodes the JSON columns of `sess`: answers, flagged_questions and filters.
func (repo sessionRepository) jsonColumns(sess quiz.Session) (answers, flags, filters string, err error) {
	if answers, err = jsonColumn(sess.Answers); err != nil {
		return
	}
	if flags, err = jsonColumn(sess.FlaggedQuestions); err != nil {
		return
	}
	filters, err = jsonColumn(sess.Filters)
	return
}

// FindOrCreateActiveSession relies on the partial unique index on (user_id, exam_id) of incomplete sessions:
// a racing insert is a no-op and every caller reads back the same row.
func (repo sessionRepository) FindOrCreateActiveSession(ctx context.Context, sess quiz.Session) (quiz.Session, error) {
	sess.Normalize()
	answers, flags, filters, err := repo.jsonColumns(sess)
	if err != nil {
		return quiz.Session{}, err
	}

	ins := repo.exec.Rebind(`INSERT INTO quiz_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	_, err = repo.exec.ExecContext(
		ctx, ins,
		uuid.New().String(), sess.UserID, sess.ExamID, sess.CurrentQuestionIndex, answers, flags, false, sess.Score,
		filters, sess.CreatedAt.UTC(), sess.UpdatedAt.UTC(), null.Time{},
	)
	if err != nil {
		return quiz.Session{}, errors.Wrap(err, "inserting session")
	}

	var r sessionRow
	sel := repo.exec.Rebind("SELECT " + sessionColumns + " FROM quiz_sessions WHERE user_id = ? AND exam_id = ? AND completed = ?")
	if err = repo.exec.GetContext(ctx, &r, sel, sess.UserID, sess.ExamID, false); err != nil {
		return quiz.Session{}, errors.Wrap(err, "getting active session")
	}
	return repo.unrow(r)
}

func (repo sessionRepository) GetSession(ctx context.Context, id string) (quiz.Session, error) {
	var r sessionRow
	q := repo.exec.Rebind("SELECT " + sessionColumns + " FROM quiz_sessions WHERE id = ?")
	if err := repo.exec.GetContext(ctx, &r, q, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Session{}, quiz.ErrSessionNotFound
		}
		return quiz.Session{}, errors.Wrap(err, "getting session")
	}
	return repo.unrow(r)
}

func (repo sessionRepository) UpdateSession(ctx context.Context, sess quiz.Session) (quiz.Session, error) {
	sess.Normalize()
	answers, flags, filters, err := repo.jsonColumns(sess)
	if err != nil {
		return quiz.Session{}, err
	}

	q := repo.exec.Rebind(`UPDATE quiz_sessions SET
		current_question_index = ?, answers = ?, flagged_questions = ?, completed = ?, score = ?, filters = ?,
		version = version + 1, updated_at = ?, completed_at = ?
		WHERE id = ? AND version = ?`)
	res, err := repo.exec.ExecContext(
		ctx, q,
		sess.CurrentQuestionIndex, answers, flags, sess.Completed, sess.Score, filters,
		sess.UpdatedAt.UTC(), sess.CompletedAt, sess.ID, sess.Version,
	)
	if err != nil {
		return quiz.Session{}, errors.Wrap(err, "updating session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return quiz.Session{}, errors.Wrap(err, "updating session")
	}
	if n == 0 {
		// either gone or outdated
		if _, err = repo.GetSession(ctx, sess.ID); err != nil {
			return quiz.Session{}, err
		}
		return quiz.Session{}, quiz.ErrSessionConflict
	}

	sess.Version++
	return sess, nil
}
