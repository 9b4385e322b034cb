package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/nm2tech/classroom/apps/api/echo"
	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/activity"
	"github.com/nm2tech/classroom/core/assignment"
	"github.com/nm2tech/classroom/core/event"
	"github.com/nm2tech/classroom/core/newsletter"
	"github.com/nm2tech/classroom/core/user"
	emailsvc "github.com/nm2tech/classroom/services/email"
	logsvc "github.com/nm2tech/classroom/services/logger"
	pdfsvc "github.com/nm2tech/classroom/services/pdf"
	"github.com/nm2tech/classroom/storage/database"
)

func main() {
	conf := core.Conf

	// set up logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" {
		rl := logsvc.NewRollbarLogger(std, conf)
		rl.Enable(!conf.Debug)
		logger = rl
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	// set up storage
	store, err := database.Open(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening storage: %v", err), err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing storage: %v", err), err)
		}
	}()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("ensuring schema: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	actSvc := activity.NewService(store)
	usrSvc := user.NewService(store, actSvc, logger)
	renderer := pdfsvc.NewRenderer("MRS. SIMMS", "Ksimms@washingtonchristian.org", "240-390-0429")
	nlSvc := newsletter.NewService(store, mailSvc, renderer)
	evSvc := event.NewService(store)
	asSvc := assignment.NewService(store)

	if err := usrSvc.EnsureDefaultUsers(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("seeding default users: %v", err), err)
	}

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	server := echoapi.NewServer(&echoapi.Options{
		Address:       conf.Server.Address,
		Logger:        logger,
		UserSvc:       usrSvc,
		NewsletterSvc: nlSvc,
		EventSvc:      evSvc,
		AssignmentSvc: asSvc,
		ActivitySvc:   actSvc,
	})

	go server.Start()

	// shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error(fmt.Sprintf("stopping server: %v", err), err)
	}
}
