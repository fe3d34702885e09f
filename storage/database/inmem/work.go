package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mkabeya/kazi/core/work"
)

type workRepository struct {
	db *DB
}

var _ work.Repository = (*workRepository)(nil) // interface compliance check

func NewWorkRepository(db *DB) *workRepository {
	return &workRepository{db: db}
}

func (repo *workRepository) GetWork(ctx context.Context, assignmentID, studentName string) (work.StudentWork, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, w := range repo.db.works {
		if w.AssignmentID == assignmentID && strings.EqualFold(w.StudentName, studentName) {
			return *w, nil
		}
	}
	return work.StudentWork{}, work.ErrNotFound
}

func (repo *workRepository) UpsertWork(ctx context.Context, w work.StudentWork) (work.StudentWork, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if w.ID == "" {
		for _, existing := range repo.db.works {
			if existing.AssignmentID == w.AssignmentID && strings.EqualFold(existing.StudentName, w.StudentName) {
				w.ID = existing.ID
				break
			}
		}
	}
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	repo.db.works[w.ID] = &w
	return w, nil
}

func (repo *workRepository) QueryAssignmentWork(ctx context.Context, assignmentID string) ([]work.StudentWork, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	res := make([]work.StudentWork, 0)
	for _, w := range repo.db.works {
		if w.AssignmentID == assignmentID {
			res = append(res, *w)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return strings.ToLower(res[i].StudentName) < strings.ToLower(res[j].StudentName)
	})
	return res, nil
}

func (repo *workRepository) CountDistinctStudents(ctx context.Context, assignmentID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make(map[string]struct{})
	for _, w := range repo.db.works {
		if w.AssignmentID == assignmentID {
			students[strings.ToLower(w.StudentName)] = struct{}{}
		}
	}
	return len(students), nil
}
