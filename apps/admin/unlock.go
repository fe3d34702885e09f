package main

import (
	"context"

	"github.com/mkabeya/kazi/core/teacher"
)

// unlock lifts a login lockout and resets the failed attempt counter.
func (cli *commandLine) unlock(uname string) error {
	svc := teacher.NewService(cli.teacherRepo)
	_, err := svc.Unlock(context.Background(), uname)
	return err
}
