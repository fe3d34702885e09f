package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mkabeya/kazi/core/assignment"
	"github.com/mkabeya/kazi/core/work"
)

// Filter kinds
const (
	KindAll    = "all"
	KindDrafts = "drafts"
	KindFinals = "finals"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNoSubmissions = errors.New("no submissions found")

	archiveFolders = map[bool]string{
		true:  "Final_Submissions",
		false: "Draft_Submissions",
	}
)

type (
	// Filter selects which work rows end up in an export.
	Filter struct {
		Kind    string // all (default) | drafts | finals
		Student string // exact student name, matched case-insensitively
	}

	// File is a downloadable export: a single plain-text document or a
	// zip archive, depending on how many records matched.
	File struct {
		Name        string
		ContentType string
		Data        []byte
	}

	Service struct {
		asgRepo  assignment.Repository
		workRepo work.Repository
	}
)

func NewService(asgRepo assignment.Repository, workRepo work.Repository) *Service {
	return &Service{asgRepo: asgRepo, workRepo: workRepo}
}

func (f Filter) matches(w work.StudentWork) bool {
	switch f.Kind {
	case KindDrafts:
		if w.IsFinal() {
			return false
		}
	case KindFinals:
		if !w.IsFinal() {
			return false
		}
	}
	if f.Student != "" && !strings.EqualFold(f.Student, w.StudentName) {
		return false
	}
	return true
}

// Export builds a downloadable report of the assignment's submissions.
// One match yields a single text document, several yield a zip archive
// grouped into final/draft folders with a summary document. An empty
// match set is an error; we never hand out empty archives.
func (svc *Service) Export(ctx context.Context, teacherID, assignmentID string, filter Filter) (File, error) {
	asg, err := svc.asgRepo.GetTeacherAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return File{}, err
	}

	works, err := svc.workRepo.QueryAssignmentWork(ctx, asg.ID)
	if err != nil {
		return File{}, errors.Wrap(err, "querying student work")
	}

	selected := make([]work.StudentWork, 0, len(works))
	for _, w := range works {
		if filter.matches(w) {
			selected = append(selected, w)
		}
	}
	if len(selected) == 0 {
		return File{}, ErrNoSubmissions
	}

	if len(selected) == 1 {
		w := selected[0]
		return File{
			Name:        workFilename(w),
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte(renderWorkDocument(asg, w)),
		}, nil
	}

	data, err := svc.buildArchive(asg, selected)
	if err != nil {
		return File{}, err
	}
	name := fmt.Sprintf("%s_Submissions_%s.zip",
		SanitizeFilename(asg.Title), NowFunc().UTC().Format("2006-01-02"))
	return File{
		Name:        name,
		ContentType: "application/zip",
		Data:        data,
	}, nil
}

func (svc *Service) buildArchive(asg assignment.Assignment, works []work.StudentWork) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, w := range works {
		path := archiveFolders[w.IsFinal()] + "/" + workFilename(w)
		f, err := zw.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "creating archive entry %s", path)
		}
		if _, err = f.Write([]byte(renderWorkDocument(asg, w))); err != nil {
			return nil, errors.Wrapf(err, "writing archive entry %s", path)
		}
	}

	f, err := zw.Create("submission_summary.txt")
	if err != nil {
		return nil, errors.Wrap(err, "creating summary entry")
	}
	if _, err = f.Write([]byte(renderSummary(asg, works, NowFunc().UTC()))); err != nil {
		return nil, errors.Wrap(err, "writing summary entry")
	}

	if err = zw.Close(); err != nil {
		return nil, errors.Wrap(err, "finalizing archive")
	}
	return buf.Bytes(), nil
}
