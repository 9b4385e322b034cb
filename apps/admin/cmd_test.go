package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"testing"

	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core/activity"
	"github.com/nm2tech/classroom/core/user"
	logsvc "github.com/nm2tech/classroom/services/logger"
	dummydb "github.com/nm2tech/classroom/storage/database/dummy"
)

var usrSvc *user.Service

func setup(t *testing.T) *commandLine {
	store := dummydb.NewStore()
	testLogger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	usrSvc = user.NewService(store, activity.NewService(store), testLogger)
	return &commandLine{usrSvc: usrSvc}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "bad role", args: []string{"adduser", "-username", "teacher1", "-role", "boss"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "teacher1", "-role", "teacher"}, wantErr: errHelp},
		{name: "create teacher", args: []string{"adduser", "-username", "teacher1", "-role", "teacher"}, pwd: "password123"},
		{name: "update existing", args: []string{"adduser", "-username", "teacher1", "-role", "teacher", "-email", "t1@test.cd"}, pwd: "password456"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrSvc.GetByUsername(context.Background(), "teacher1")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if usr.Email != "t1@test.cd" {
		t.Errorf("email = %q, want %q", usr.Email, "t1@test.cd")
	}
	if err := usr.CheckPassword("password456"); err != nil {
		t.Error("password was not updated")
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr, err := usrSvc.Create(context.Background(), user.NewUser{
		Username: "awe",
		Password: "initial-pwd",
		Role:     user.RoleParent,
		Email:    "awe@test.cd",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lolpwd", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-username", usr.Username}, pwd: "changed-pwd"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := usrSvc.GetByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetByID() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if errors.Cause(err) != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
