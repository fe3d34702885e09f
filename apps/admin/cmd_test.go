package main

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkabeya/kazi/core/teacher"
	inmemdb "github.com/mkabeya/kazi/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return &commandLine{
		teacherRepo: inmemdb.NewTeacherRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runTests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no subcommand", args: nil, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"lol"}, wantErr: errHelp},
	}
	runTests(t, cli, tests)
}

func Test_commandLine_addTeacher(t *testing.T) {
	cli := setup(t)

	pwd := "Str0ngPass!"
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }

	tests := []cliTest{
		{name: "no flags", args: []string{"addteacher"}, wantErr: errHelp},
		{name: "create", args: []string{"addteacher", "-username", "Mwalimu"}},
	}
	runTests(t, cli, tests)

	tchr, err := cli.teacherRepo.GetTeacherByUsername(context.Background(), "mwalimu")
	require.NoError(t, err)
	assert.NoError(t, tchr.CheckPassword("Str0ngPass!"))

	// running again resets the password instead of failing
	pwd = "N3wPass!!"
	runTests(t, cli, []cliTest{{name: "reset", args: []string{"addteacher", "-username", "mwalimu"}}})

	tchr, err = cli.teacherRepo.GetTeacherByUsername(context.Background(), "mwalimu")
	require.NoError(t, err)
	assert.NoError(t, tchr.CheckPassword("N3wPass!!"))

	t.Run("empty password", func(t *testing.T) {
		readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
		err := cli.run([]string{"admin", "addteacher", "-username", "mwalimu"})
		assert.Equal(t, errHelp, err)
	})
}

func Test_commandLine_unlock(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	tchr := teacher.Teacher{Username: "mwalimu", FailedAttempts: teacher.MaxFailedLogins}
	require.NoError(t, tchr.SetPassword("Str0ngPass!"))
	_, err := cli.teacherRepo.CreateTeacher(ctx, tchr)
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no flags", args: []string{"unlock"}, wantErr: errHelp},
		{name: "unknown teacher", args: []string{"unlock", "-username", "nobody"}, wantErr: teacher.ErrNotFound},
		{name: "ok", args: []string{"unlock", "-username", "mwalimu"}},
	}
	runTests(t, cli, tests)

	got, err := cli.teacherRepo.GetTeacherByUsername(ctx, "mwalimu")
	require.NoError(t, err)
	assert.Zero(t, got.FailedAttempts)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var lastCmd string
	migrateUpFunc = func(db *sqlx.DB) error { lastCmd = "up"; return nil }
	migrateDownFunc = func(db *sqlx.DB) error { lastCmd = "down"; return errors.New("dirty database") }

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "sideways"}, wantErrStr: `unknown migrate command "sideways"`},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down error is surfaced", args: []string{"migrate", "down"}, wantErrStr: "dirty database"},
	}
	runTests(t, cli, tests)
	assert.Equal(t, "down", lastCmd)
}
