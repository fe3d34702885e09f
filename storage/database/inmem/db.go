// Package inmemdb provides map-backed repositories implementing the
// domain repository interfaces. It backs the service and API tests and
// doubles as a zero-dependency local playground.
package inmemdb

import (
	"sync"

	"github.com/mkabeya/kazi/core/assignment"
	"github.com/mkabeya/kazi/core/teacher"
	"github.com/mkabeya/kazi/core/work"
)

type DB struct {
	mu          sync.RWMutex
	teachers    map[string]*teacher.Teacher
	assignments map[string]*assignment.Assignment
	works       map[string]*work.StudentWork
}

func Open() (*DB, error) {
	db := &DB{
		teachers:    make(map[string]*teacher.Teacher),
		assignments: make(map[string]*assignment.Assignment),
		works:       make(map[string]*work.StudentWork),
	}
	return db, nil
}

// Reset empties every table; tests share one DB across cases.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.teachers = make(map[string]*teacher.Teacher)
	db.assignments = make(map[string]*assignment.Assignment)
	db.works = make(map[string]*work.StudentWork)
}
