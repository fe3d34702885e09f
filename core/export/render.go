package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mkabeya/kazi/core/assignment"
	"github.com/mkabeya/kazi/core/work"
)

const (
	banner  = "====================================="
	divider = "-------------------------------------"

	timestampLayout = "2006-01-02 15:04:05"
	filenameLayout  = "2006-01-02-15-04-05"

	emptyAnswerPlaceholder = "(no answer provided)"
)

// unsafeFilenameChars matches everything outside the cross-filesystem
// safe subset: letters, digits, underscore, hyphen and space.
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_\- ]+`)

// SanitizeFilename collapses unsafe character runs to a single hyphen
// so arbitrary student-entered names stay valid on any filesystem.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(name, "-"))
}

// workTimestamp picks the timestamp relevant to the work's status:
// submission time for finals, last save for drafts.
func workTimestamp(w work.StudentWork) time.Time {
	if w.IsFinal() && w.SubmittedAt.Valid {
		return w.SubmittedAt.Time
	}
	return w.LastSavedAt
}

func workFilename(w work.StudentWork) string {
	return fmt.Sprintf("%s_%s_%s.txt",
		SanitizeFilename(w.StudentName),
		workTimestamp(w).Format(filenameLayout),
		strings.ToUpper(w.Status),
	)
}

// renderWorkDocument produces the deterministic plain-text report for a
// single piece of student work.
func renderWorkDocument(asg assignment.Assignment, w work.StudentWork) string {
	var b strings.Builder

	heading := "HOMEWORK DRAFT"
	tsLabel := "Draft Saved:"
	if w.IsFinal() {
		heading = "HOMEWORK SUBMISSION - FINAL"
		tsLabel = "Final Submission:"
	}

	fmt.Fprintf(&b, "%s\n%s\n%s\n\n", banner, heading, banner)
	fmt.Fprintf(&b, "Assignment Title: %s\n", asg.Title)
	fmt.Fprintf(&b, "Student Name: %s\n", w.StudentName)
	fmt.Fprintf(&b, "%s %s\n", tsLabel, workTimestamp(w).Format(timestampLayout))
	fmt.Fprintf(&b, "Word Count: %d\n", w.WordCount)
	status := strings.ToUpper(w.Status)
	if w.IsFinal() {
		fmt.Fprintf(&b, "Status: %s\n", status)
	} else {
		fmt.Fprintf(&b, "Status: %s - NOT FINAL SUBMISSION\n", status)
	}
	fmt.Fprintf(&b, "Assignment Capacity: %d/%d students\n\n", asg.StudentCount, asg.MaxStudents)

	fmt.Fprintf(&b, "%s\nASSIGNMENT QUESTION:\n%s\n%s\n\n", divider, divider, asg.Content)

	if asg.Instructions != "" {
		fmt.Fprintf(&b, "%s\nINSTRUCTIONS:\n%s\n%s\n\n", divider, divider, asg.Instructions)
	}

	answerLabel := "STUDENT ANSWER:"
	if !w.IsFinal() {
		answerLabel = "STUDENT ANSWER (DRAFT):"
	}
	answer := w.Content
	if strings.TrimSpace(answer) == "" {
		answer = emptyAnswerPlaceholder
	}
	fmt.Fprintf(&b, "%s\n%s\n%s\n%s\n\n", divider, answerLabel, divider, answer)

	footer := "Draft"
	if w.IsFinal() {
		footer = "Final Submission"
	}
	fmt.Fprintf(&b, "%s\nEnd of %s\n%s", banner, footer, banner)

	return b.String()
}

// renderSummary produces the submission_summary.txt document bundled
// into every archive export.
func renderSummary(asg assignment.Assignment, works []work.StudentWork, now time.Time) string {
	var finals, drafts int
	students := make(map[string]struct{}, len(works))
	for _, w := range works {
		if w.IsFinal() {
			finals++
		} else {
			drafts++
		}
		students[strings.ToLower(w.StudentName)] = struct{}{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SUBMISSION SUMMARY\n")
	fmt.Fprintf(&b, "Assignment: %s\n", asg.Title)
	fmt.Fprintf(&b, "Total Students: %d\n", len(students))
	fmt.Fprintf(&b, "Final Submissions: %d\n", finals)
	fmt.Fprintf(&b, "Draft Only: %d\n", drafts)
	fmt.Fprintf(&b, "Assignment Capacity: %d/%d students\n", asg.StudentCount, asg.MaxStudents)
	fmt.Fprintf(&b, "Download Date: %s\n\n", now.Format(timestampLayout))

	fmt.Fprintf(&b, "STUDENT STATUS:\n")
	for i, w := range works {
		fmt.Fprintf(&b, "%d. %s - %s - %s - %d words\n",
			i+1, w.StudentName, strings.ToUpper(w.Status), workTimestamp(w).Format(timestampLayout), w.WordCount)
	}

	utilization := 0
	if asg.MaxStudents > 0 {
		utilization = int(float64(asg.StudentCount)/float64(asg.MaxStudents)*100 + 0.5)
	}
	fmt.Fprintf(&b, "\nCAPACITY METRICS:\n")
	fmt.Fprintf(&b, "Current Students: %d\n", asg.StudentCount)
	fmt.Fprintf(&b, "Available Slots: %d\n", asg.MaxStudents-asg.StudentCount)
	fmt.Fprintf(&b, "Capacity Utilization: %d%%\n", utilization)

	return b.String()
}
