package main

import (
	"context"

	"github.com/mkabeya/kazi/core"
	"github.com/mkabeya/kazi/core/teacher"
)

// addTeacher creates a teacher.Teacher, or resets the password if the
// account already exists.
func (cli *commandLine) addTeacher(uname, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	tchr, err := cli.teacherRepo.GetTeacherByUsername(ctx, uname)
	if err != nil {
		if err != teacher.ErrNotFound {
			return err
		}
		tchr = teacher.Teacher{Username: uname}
		if err := tchr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.teacherRepo.CreateTeacher(ctx, tchr)
		return err
	}

	if err := tchr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.teacherRepo.UpdateTeacher(ctx, tchr)
	return err
}
