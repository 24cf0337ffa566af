package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/mentora/apps/api/echo"
	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/quiz"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
	embedsvc "github.com/trezcool/mentora/services/embedding"
	emailsvc "github.com/trezcool/mentora/services/email"
	logsvc "github.com/trezcool/mentora/services/logger"
	"github.com/trezcool/mentora/storage/database"
	inmemdb "github.com/trezcool/mentora/storage/database/inmem"
	"github.com/trezcool/mentora/storage/database/sqlxrepos"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBCloser releases the database, if any.
	DBCloser func() error

	Repositories struct {
		dig.Out
		Users     user.Repository
		Questions quiz.QuestionRepository
		Sessions  quiz.SessionRepository
		Profiles  sponsorship.Repository
		Jobs      jobmatch.Repository
		Close     DBCloser
	}

	ServerParams struct {
		dig.In
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		UserSvc        user.Service
		QuizSvc        quiz.Service
		SponsorshipSvc sponsorship.Service
		JobMatchSvc    jobmatch.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newRepositories picks the storage engine: in memory, or sqlx over postgres / sqlite3.
func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.Engine == core.EngineMemory {
		db := inmemdb.Open()
		return Repositories{
			Users:     inmemdb.NewUserRepository(db),
			Questions: inmemdb.NewQuestionRepository(db),
			Sessions:  inmemdb.NewSessionRepository(db),
			Profiles:  inmemdb.NewProfileRepository(db),
			Jobs:      inmemdb.NewJobRepository(db),
			Close:     func() error { return nil },
		}
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(db); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	return Repositories{
		Users:     sqlxrepos.NewUserRepository(db),
		Questions: sqlxrepos.NewQuestionRepository(db),
		Sessions:  sqlxrepos.NewSessionRepository(db),
		Profiles:  sqlxrepos.NewProfileRepository(db),
		Jobs:      sqlxrepos.NewJobRepository(db),
		Close:     db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newJobMatchService(
	conf *core.Config,
	logger core.Logger,
	profiles sponsorship.Service,
	jobs jobmatch.Repository,
	embedder jobmatch.Embedder,
) jobmatch.Service {
	return jobmatch.NewService(profiles, jobs, embedder, logger, conf.Matcher.TopK)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		UserSvc:        p.UserSvc,
		QuizSvc:        p.QuizSvc,
		SponsorshipSvc: p.SponsorshipSvc,
		JobMatchSvc:    p.JobMatchSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(embedsvc.NewOpenAIEmbedder, dig.As(new(jobmatch.Embedder))))
	must(c.Provide(user.NewService))
	must(c.Provide(quiz.NewService))
	must(c.Provide(sponsorship.NewService))
	must(c.Provide(newJobMatchService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
