package main

import (
	"context"
	"log"
	"os"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/activity"
	"github.com/nm2tech/classroom/core/user"
	logsvc "github.com/nm2tech/classroom/services/logger"
	"github.com/nm2tech/classroom/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up storage
	store, err := database.Open(core.Conf, logsvc.NewStdLogger(logger))
	errAndDie(err)
	defer func() { _ = store.Close() }()
	errAndDie(store.EnsureSchema(context.Background()))

	// start CLI
	cli := commandLine{
		usrSvc: user.NewService(store, activity.NewService(store), logsvc.NewStdLogger(logger)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
