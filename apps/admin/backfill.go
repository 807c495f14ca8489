package main

import (
	"context"
	"log"
	"os"

	"github.com/umarmughal824/micromasters-sub002/core/discussions"
	discussionsvc "github.com/umarmughal824/micromasters-sub002/services/discussions"
	locksvc "github.com/umarmughal824/micromasters-sub002/services/lock"
	logsvc "github.com/umarmughal824/micromasters-sub002/services/logger"
	"github.com/umarmughal824/micromasters-sub002/storage/database"
	"github.com/umarmughal824/micromasters-sub002/storage/database/sqlxrepos"
)

// backfill flags every channel membership for re-sync and immediately runs
// a sync batch. Made for recovering from drift with the discussion platform;
// anything the batch does not get to stays flagged for the periodic job.
func (cli *commandLine) backfill() error {
	ctx := context.Background()

	searchRepo := sqlxrepos.NewSearchRepository(cli.db)
	n, err := searchRepo.MarkMembershipsNeedingUpdate(ctx)
	if err != nil {
		return err
	}
	logger.Printf("marked %d memberships for re-sync", n)

	appLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		cli.conf,
	)
	appLogger.Enable(!cli.conf.Debug)

	lock, err := locksvc.NewRedisLock(cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Close() }()

	svc := discussions.NewService(
		database.NewAppDB(cli.db),
		sqlxrepos.NewDiscussionRepository(cli.db),
		sqlxrepos.NewUserRepository(cli.db),
		searchRepo,
		discussionsvc.NewClient(cli.conf, appLogger),
		lock,
		appLogger,
		cli.conf,
	)
	return svc.SyncChannelMemberships(ctx)
}
