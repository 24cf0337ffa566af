package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/quiz"
)

func readJSONFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading file")
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}

// importQuestions reads a file shaped like `{"questions": [...]}`.
func (cli *commandLine) importQuestions(path string) error {
	var data quiz.NewQuestions
	if err := readJSONFile(path, &data); err != nil {
		return err
	}
	if err := data.Validate(cli.validate); err != nil {
		return err
	}

	questions, err := cli.quizSvc.AddQuestions(context.Background(), data.Questions)
	if err != nil {
		return errors.Wrap(err, "adding questions")
	}
	_, _ = fmt.Fprintf(cli.out, "imported %d questions\n", len(questions))
	return nil
}

// importJobs reads a file shaped like `{"jobs": [...]}`.
func (cli *commandLine) importJobs(path string) error {
	var data jobmatch.NewJobs
	if err := readJSONFile(path, &data); err != nil {
		return err
	}
	if err := data.Validate(cli.validate); err != nil {
		return err
	}

	jobs, err := cli.matchSvc.ImportJobs(context.Background(), data.Jobs)
	if err != nil {
		return errors.Wrap(err, "importing jobs")
	}
	_, _ = fmt.Fprintf(cli.out, "imported %d jobs\n", len(jobs))
	return nil
}
