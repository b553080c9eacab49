package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pollcraft/backend/internal/domain/notification/event"
	"github.com/pollcraft/backend/pkg/pubsub"
	"github.com/pollcraft/backend/pkg/ws"
	"github.com/pollcraft/backend/pkg/xcontext"
	"github.com/puzpuzpuz/xsync"
)

// Engine consumes domain events from the broker and pushes them to
// websocket clients. Every channel gets its own monotonic sequence so
// clients can detect gaps after a reconnect.
type Engine struct {
	hub      *ws.Hub
	sequence *xsync.MapOf[string, *xsync.Counter]
}

func NewEngine(hub *ws.Hub) *Engine {
	return &Engine{
		hub:      hub,
		sequence: xsync.NewMapOf[*xsync.Counter](),
	}
}

// HandlePack is wired as the broker subscribe handler.
func (e *Engine) HandlePack(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var req event.EventRequest
	if err := json.Unmarshal(pack.Msg, &req); err != nil {
		xcontext.Logger(ctx).Errorf("Unable to unmarshal event: %v", err)
		return
	}

	counter, _ := e.sequence.LoadOrStore(req.Metadata.Channel, new(xsync.Counter))
	counter.Inc()

	resp := event.Format(&req, counter.Value())
	b, err := json.Marshal(resp)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Unable to marshal event response: %v", err)
		return
	}

	e.hub.BroadCastByChannel(req.Metadata.Channel, b)
}
