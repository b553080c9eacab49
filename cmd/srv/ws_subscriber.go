package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pollcraft/backend/internal/domain/notification/engine"
	"github.com/pollcraft/backend/pkg/kafka"
	"github.com/pollcraft/backend/pkg/ws"
	"github.com/pollcraft/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// startWsSubscriber consumes domain events from the broker and pushes
// them to websocket clients subscribed to poll or contest channels.
func (s *srv) startWsSubscriber(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()

	s.hub = ws.NewHub()
	go s.hub.Run()

	cfg := xcontext.Configs(s.ctx).Kafka
	notificationEngine := engine.NewEngine(s.hub)
	s.subscriber = kafka.NewSubscriber(
		"ws-subscriber",
		[]string{cfg.Addr},
		[]string{cfg.EventTopic},
		notificationEngine.HandlePack,
	)
	go s.subscriber.Subscribe(s.ctx)

	ginRouter := gin.New()
	ginRouter.GET("/ws", s.serveWs)

	apiCfg := xcontext.Configs(s.ctx).ApiServer
	s.server = &http.Server{
		Addr:    apiCfg.Address(),
		Handler: ginRouter,
	}

	xcontext.Logger(s.ctx).Infof("Starting ws subscriber on %s", apiCfg.Address())
	return s.server.ListenAndServe()
}

func (s *srv) serveWs(ginCtx *gin.Context) {
	channel := ginCtx.Query("channel")
	if channel == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
		return
	}

	conn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot upgrade connection: %v", err)
		return
	}

	client := ws.NewClient(conn, channel)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()
}
