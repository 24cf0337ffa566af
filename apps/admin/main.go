package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/quiz"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
	logsvc "github.com/trezcool/mentora/services/logger"
	"github.com/trezcool/mentora/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	if conf.Database.Engine == core.EngineMemory {
		logger.Fatalf("admin commands need a persistent database, got engine %q", conf.Database.Engine)
	}

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	// set up validation
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	sponsorship.InitValidators(validate, translator)

	// start CLI
	cli := newCommandLine(db, conf, logsvc.NewRollbarLogger(logger, conf), validate)
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
