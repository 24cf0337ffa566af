package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/quiz"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
	embedsvc "github.com/trezcool/mentora/services/embedding"
	emailsvc "github.com/trezcool/mentora/services/email"
	"github.com/trezcool/mentora/storage/database/sqlxrepos"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	validate *validator.Validate
	usrRepo  user.Repository
	usrSvc   user.Service
	quizSvc  quiz.Service
	matchSvc jobmatch.Service
	out      io.Writer
}

func newCommandLine(db *sqlx.DB, conf *core.Config, logger core.Logger, validate *validator.Validate) *commandLine {
	usrRepo := sqlxrepos.NewUserRepository(db)
	profiles := sponsorship.NewService(sqlxrepos.NewProfileRepository(db))
	return &commandLine{
		db:       db,
		validate: validate,
		usrRepo:  usrRepo,
		usrSvc:   user.NewService(usrRepo, emailsvc.NewConsoleService(conf), conf),
		quizSvc:  quiz.NewService(sqlxrepos.NewSessionRepository(db), sqlxrepos.NewQuestionRepository(db)),
		matchSvc: jobmatch.NewService(
			profiles, sqlxrepos.NewJobRepository(db), embedsvc.NewOpenAIEmbedder(conf, logger), logger, conf.Matcher.TopK,
		),
		out: os.Stdout,
	}
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  adduser -email EMAIL -first NAME -last NAME [-admin] [-mentor] - create or update a user")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run database migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version)")
	_, _ = fmt.Fprintln(cli.out, "  importquestions -file FILE - add the questions of a JSON file to the PLAB question bank")
	_, _ = fmt.Fprintln(cli.out, "  importjobs -file FILE - embed and add the jobs of a JSON file to the matching pool")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse maps `-h` and flag errors to errHelp, the usage having been printed already.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return nil
}

func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "adduser":
		fs := cli.newFlagSet("adduser")
		email := fs.String("email", "", "The user's email. The password will be prompted next.")
		firstName := fs.String("first", "", "The user's first name, for new users.")
		lastName := fs.String("last", "", "The user's last name, for new users.")
		isAdmin := fs.Bool("admin", false, "Grant the admin role.")
		isMentor := fs.Bool("mentor", false, "Grant the mentor role.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(fs)
		if err != nil {
			return err
		}
		return cli.addUser(*email, *firstName, *lastName, pwd, *isAdmin, *isMentor)

	case "resetpassword":
		fs := cli.newFlagSet("resetpassword")
		email := fs.String("email", "", "The user's email. The password will be prompted next.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(fs)
		if err != nil {
			return err
		}
		return cli.resetPassword(*email, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "importquestions", "importjobs":
		fs := cli.newFlagSet(args[1])
		file := fs.String("file", "", "Path to the JSON file to import.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if *file == "" {
			fs.Usage()
			return errHelp
		}
		if args[1] == "importjobs" {
			return cli.importJobs(*file)
		}
		return cli.importQuestions(*file)

	default:
		cli.printUsage()
		return errHelp
	}
}
