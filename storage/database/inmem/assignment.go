package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mkabeya/kazi/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetTeacherAssignment(ctx context.Context, teacherID, id string) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok && asg.TeacherID == teacherID {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) GetAssignmentByCode(ctx context.Context, code string) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, asg := range repo.db.assignments {
		if asg.Code == code {
			return *asg, nil
		}
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryTeacherAssignments(ctx context.Context, teacherID string) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	res := make([]assignment.Assignment, 0)
	for _, asg := range repo.db.assignments {
		if asg.TeacherID == teacherID {
			res = append(res, *asg)
		}
	}
	// newest first
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (repo *assignmentRepository) CountActiveAssignments(ctx context.Context, teacherID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.countActive(teacherID), nil
}

func (repo *assignmentRepository) countActive(teacherID string) int {
	var count int
	for _, asg := range repo.db.assignments {
		if asg.TeacherID == teacherID && asg.Status == assignment.StatusActive {
			count++
		}
	}
	return count
}

func (repo *assignmentRepository) AssignmentCodeExists(ctx context.Context, code string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, asg := range repo.db.assignments {
		if asg.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments[asg.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments[id]; !ok {
		return assignment.ErrNotFound
	}
	// cascade: student work first, then the assignment itself
	for wid, w := range repo.db.works {
		if w.AssignmentID == id {
			delete(repo.db.works, wid)
		}
	}
	delete(repo.db.assignments, id)
	return nil
}

func (repo *assignmentRepository) RefreshTeacherActiveCount(ctx context.Context, teacherID string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	count := repo.countActive(teacherID)
	if tchr, ok := repo.db.teachers[teacherID]; ok {
		tchr.ActiveCount = count
	}
	return count, nil
}

func (repo *assignmentRepository) RefreshStudentCount(ctx context.Context, assignmentID string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	students := make(map[string]struct{})
	for _, w := range repo.db.works {
		if w.AssignmentID == assignmentID {
			students[strings.ToLower(w.StudentName)] = struct{}{}
		}
	}
	count := len(students)
	if asg, ok := repo.db.assignments[assignmentID]; ok {
		asg.StudentCount = count
	}
	return count, nil
}
