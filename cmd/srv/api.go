package main

import (
	"net/http"

	"github.com/pollcraft/backend/pkg/router"
	"github.com/pollcraft/backend/pkg/xcontext"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()
	s.loadDatabase()
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx).ApiServer
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowOrigins,
		AllowCredentials: true,
		AllowedHeaders:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
	})

	s.server = &http.Server{
		Addr:    cfg.Address(),
		Handler: c.Handler(s.router.Handler()),
	}

	xcontext.Logger(s.ctx).Infof("Starting api server on %s", cfg.Address())
	if cfg.Cert != "" && cfg.Key != "" {
		return s.server.ListenAndServeTLS(cfg.Cert, cfg.Key)
	}

	return s.server.ListenAndServe()
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)

	publicRouter := s.router.Group("")
	{
		router.GET(publicRouter, "/getPolls", s.pollDomain.GetPolls)
		router.GET(publicRouter, "/getPoll", s.pollDomain.GetPoll)
		router.GET(publicRouter, "/getPollResults", s.pollDomain.GetResults)
		router.GET(publicRouter, "/getContest", s.contestDomain.GetContest)
		router.GET(publicRouter, "/getLeaderboard", s.contestDomain.GetLeaderboard)
	}

	authRouter := s.router.Group("")
	authRouter.Use(router.RequireAuth())
	{
		router.POST(authRouter, "/castVote", s.pollDomain.CastVote)
		router.POST(authRouter, "/enrollContest", s.contestDomain.Enroll)
		router.GET(authRouter, "/getBalance", s.ledgerDomain.GetBalance)
		router.GET(authRouter, "/getMyTransactions", s.ledgerDomain.GetMyTransactions)

		// Admin operations verify the caller's global role themselves.
		router.POST(authRouter, "/createPoll", s.pollDomain.CreatePoll)
		router.POST(authRouter, "/createContest", s.contestDomain.CreateContest)
		router.POST(authRouter, "/advanceContestPhase", s.contestDomain.AdvancePhase)
		router.POST(authRouter, "/submitScore", s.contestDomain.SubmitScore)
		router.POST(authRouter, "/disburseContest", s.contestDomain.Disburse)
		router.POST(authRouter, "/cancelContest", s.contestDomain.Cancel)
	}
}
