package inmemdb

import (
	"sync"

	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/quiz"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
)

type (
	// DB is a process-local store used by the `memory` engine and by tests.
	DB struct {
		user        *userTable
		question    *questionTable
		session     *sessionTable
		sponsorship *profileTable
		job         *jobTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	questionTable struct {
		table map[string]*quiz.Question
		mutex sync.RWMutex
	}

	sessionTable struct {
		table map[string]*quiz.Session
		mutex sync.RWMutex
	}

	profileTable struct {
		table map[string]*sponsorship.Profile
		mutex sync.RWMutex
	}

	jobTable struct {
		rows  []jobmatch.Job
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		question:    &questionTable{table: make(map[string]*quiz.Question)},
		session:     &sessionTable{table: make(map[string]*quiz.Session)},
		sponsorship: &profileTable{table: make(map[string]*sponsorship.Profile)},
		job:         &jobTable{},
	}
}
