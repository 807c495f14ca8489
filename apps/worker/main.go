package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hibiken/asynq"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/discussions"
	discussionsvc "github.com/umarmughal824/micromasters-sub002/services/discussions"
	locksvc "github.com/umarmughal824/micromasters-sub002/services/lock"
	logsvc "github.com/umarmughal824/micromasters-sub002/services/logger"
	queuesvc "github.com/umarmughal824/micromasters-sub002/services/queue"
	searchsvc "github.com/umarmughal824/micromasters-sub002/services/search"
	"github.com/umarmughal824/micromasters-sub002/storage/database"
	"github.com/umarmughal824/micromasters-sub002/storage/database/sqlxrepos"
)

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
		log.New(os.Stdout, "WORKER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	sqlDB, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = sqlDB.Close() }()
	db := database.NewAppDB(sqlDB)

	lock, err := locksvc.NewRedisLock(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	defer func() { _ = lock.Close() }()

	searchClient := searchsvc.NewClient(conf)
	discSvc := discussions.NewService(
		db,
		sqlxrepos.NewDiscussionRepository(sqlDB),
		sqlxrepos.NewUserRepository(sqlDB),
		sqlxrepos.NewSearchRepository(sqlDB),
		discussionsvc.NewClient(conf, logger),
		lock,
		logger,
		conf,
	)

	redisOpt, err := asynq.ParseRedisURI(conf.Redis.URL)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing redis URL: %v", err), err)
	}

	h := handler{discSvc: discSvc, indexer: searchClient, logger: logger}

	mux := asynq.NewServeMux()
	mux.HandleFunc(queuesvc.TaskIndexUser, h.handleIndexUser)
	mux.HandleFunc(queuesvc.TaskSyncDiscussionUser, h.handleSyncDiscussionUser)
	mux.HandleFunc(queuesvc.TaskSyncMemberships, h.handleSyncMemberships)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error(fmt.Sprintf("task %s failed: %v", task.Type(), err), err)
		}),
	})

	// periodic membership reconciliation; contention inside the job keeps
	// overlapping batches from running twice
	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(queuesvc.TaskSyncMemberships, nil)); err != nil {
		logger.Fatal(fmt.Sprintf("registering periodic membership sync: %v", err), err)
	}

	logger.Info(fmt.Sprintf("Worker initializing : version %q", conf.Build))
	defer logger.Info("Worker stopped")

	if err := scheduler.Start(); err != nil {
		logger.Fatal(fmt.Sprintf("starting scheduler: %v", err), err)
	}
	defer scheduler.Shutdown()

	if err := srv.Run(mux); err != nil {
		logger.Fatal(fmt.Sprintf("running worker: %v", err), err)
	}
}
