// Package inmemdb provides map-backed repositories. They serve as the
// fallback storage when the primary database is unreachable, and as fast
// repositories in tests.
package inmemdb

import (
	"sync"

	"github.com/noteshub/backend/core/note"
	"github.com/noteshub/backend/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	noteTable struct {
		mutex sync.RWMutex
		notes map[string]*note.Note
		flags map[string]map[string]*note.Flag // noteID -> reporterID -> flag
	}

	DB struct {
		user *userTable
		note *noteTable
	}
)

func NewDB() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		note: &noteTable{
			notes: make(map[string]*note.Note),
			flags: make(map[string]map[string]*note.Flag),
		},
	}
}
