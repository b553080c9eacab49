package main

import (
	"github.com/pollcraft/backend/internal/domain/cron"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()
	s.loadDatabase()
	s.migrateDB()
	s.loadPublisher()
	s.loadRepos()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewContestPhaseCronJob(s.contestRepo, s.notifier))
	cronJobManager.Start(s.ctx)

	return nil
}
