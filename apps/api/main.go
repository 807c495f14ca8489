package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/umarmughal824/micromasters-sub002/apps/api/echo"
	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/discussions"
	"github.com/umarmughal824/micromasters-sub002/core/program"
	"github.com/umarmughal824/micromasters-sub002/core/search"
	"github.com/umarmughal824/micromasters-sub002/core/user"
	discussionsvc "github.com/umarmughal824/micromasters-sub002/services/discussions"
	emailsvc "github.com/umarmughal824/micromasters-sub002/services/email"
	locksvc "github.com/umarmughal824/micromasters-sub002/services/lock"
	logsvc "github.com/umarmughal824/micromasters-sub002/services/logger"
	queuesvc "github.com/umarmughal824/micromasters-sub002/services/queue"
	searchsvc "github.com/umarmughal824/micromasters-sub002/services/search"
	"github.com/umarmughal824/micromasters-sub002/storage/database"
	"github.com/umarmughal824/micromasters-sub002/storage/database/sqlxrepos"
)

const shutdownTimeout = 20 * time.Second

func main() {
	workDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("getting working directory: %v", err)
	}
	conf, err := core.NewConfig(workDir)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	sqlDB, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = sqlDB.Close() }()
	db := database.NewAppDB(sqlDB)

	// set up repositories
	userRepo := sqlxrepos.NewUserRepository(sqlDB)
	searchRepo := sqlxrepos.NewSearchRepository(sqlDB)
	discussionRepo := sqlxrepos.NewDiscussionRepository(sqlDB)
	programRepo := sqlxrepos.NewProgramRepository(sqlDB)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	lock, err := locksvc.NewRedisLock(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	defer func() { _ = lock.Close() }()

	queue, err := queuesvc.NewClient(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up task queue: %v", err), err)
	}
	defer func() { _ = queue.Close() }()

	searchClient := searchsvc.NewClient(conf)

	usrSvc := user.NewService(userRepo, logger)
	searchSvc := search.NewService(searchRepo, searchClient, logger)
	progSvc := program.NewService(programRepo, userRepo, searchSvc, queue, mailSvc, logger)
	discSvc := discussions.NewService(
		db, discussionRepo, userRepo, searchRepo,
		discussionsvc.NewClient(conf, logger), lock, logger, conf,
	)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       usrSvc,
		ProgramSvc:    progSvc,
		DiscussionSvc: discSvc,
	})

	go func() {
		server.Start()
	}()

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
