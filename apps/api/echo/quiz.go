package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/quiz"
)

type quizApi struct {
	svc      quiz.Service
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc quiz.Service, validate *validator.Validate) {
	api := quizApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/plab", jwt)

	// question bank
	pg.GET("/questions", api.queryQuestions)
	pg.POST("/questions", api.addQuestions, adminMiddleware())
	pg.PUT("/questions/:id", api.updateQuestion, adminMiddleware())

	// sessions
	pg.POST("/sessions/start", api.startSession)
	sg := pg.Group("/sessions/:id")
	ownedOrMissing := sessionOwnerMiddleware(svc, quiz.ErrSessionNotFound)
	sg.GET("", api.retrieveSession, ownedOrMissing)
	sg.GET("/questions", api.sessionQuestions, ownedOrMissing)
	sg.POST("/answer", api.submitAnswer, ownedOrMissing)
	sg.POST("/flag", api.toggleFlag, sessionOwnerMiddleware(svc, quiz.ErrInvalidSessionOrIndex))
	sg.POST("/complete", api.completeSession, ownedOrMissing)
}

// Handlers

func (api *quizApi) queryQuestions(ctx echo.Context) error {
	cpdTag, err := queryBool(ctx, "cpd_tag")
	if err != nil {
		return err
	}
	filter := quiz.QueryFilter{
		ExamID:     ctx.QueryParam("exam_id"),
		Category:   ctx.QueryParam("category"),
		Difficulty: ctx.QueryParam("difficulty"),
		CPDTag:     cpdTag,
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	questions, err := api.svc.QueryQuestions(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) addQuestions(ctx echo.Context) error {
	var data quiz.NewQuestions
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestions")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	questions, err := api.svc.AddQuestions(ctx.Request().Context(), data.Questions)
	if err != nil {
		return errors.Wrap(err, "adding questions")
	}
	return ctx.JSON(http.StatusCreated, questions)
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	var data quiz.UpdateQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.UpdateQuestion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) startSession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data quiz.StartSession
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartSession")
	}
	data.UserID = claims.Subject
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.StartSession(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusOK, StartSessionResponse{
		SessionID:            sess.ID,
		CurrentQuestionIndex: sess.CurrentQuestionIndex,
		Score:                sess.Score,
	})
}

func (api *quizApi) retrieveSession(ctx echo.Context) error {
	sess, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *quizApi) sessionQuestions(ctx echo.Context) error {
	questions, err := api.svc.SessionQuestions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting session questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) submitAnswer(ctx echo.Context) error {
	var data quiz.SubmitAnswer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAnswer")
	}

	sess, err := api.svc.SubmitAnswer(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting answer")
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{
		CurrentQuestionIndex: sess.CurrentQuestionIndex,
		Score:                sess.Score,
	})
}

func (api *quizApi) toggleFlag(ctx echo.Context) error {
	var data quiz.ToggleFlag
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleFlag")
	}

	flagged, err := api.svc.ToggleFlag(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "toggling flag")
	}
	return ctx.JSON(http.StatusOK, FlagsResponse{FlaggedQuestions: flagged})
}

func (api *quizApi) completeSession(ctx echo.Context) error {
	sess, err := api.svc.CompleteSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing session")
	}
	return ctx.JSON(http.StatusOK, CompleteResponse{Message: "Session completed", Score: sess.Score})
}

type (
	StartSessionResponse struct {
		SessionID            string `json:"session_id"`
		CurrentQuestionIndex int    `json:"current_question_index"`
		Score                int    `json:"score"`
	}

	ProgressResponse struct {
		CurrentQuestionIndex int `json:"current_question_index"`
		Score                int `json:"score"`
	}

	FlagsResponse struct {
		FlaggedQuestions []int `json:"flagged_questions"`
	}

	CompleteResponse struct {
		Message string `json:"message"`
		Score   int    `json:"score"`
	}
)
