package notification

import (
	"context"
	"encoding/json"

	"github.com/pollcraft/backend/internal/domain/notification/event"
	"github.com/pollcraft/backend/pkg/pubsub"
	"github.com/pollcraft/backend/pkg/xcontext"
)

// Notifier fans domain events out to subscriber services. Emitting is
// best effort and happens after the owning transaction commits, so a
// broker outage never rolls back state.
type Notifier interface {
	Emit(ctx context.Context, ev *event.EventRequest)
}

type notifier struct {
	publisher pubsub.Publisher
}

func NewNotifier(publisher pubsub.Publisher) *notifier {
	return &notifier{publisher: publisher}
}

func (n *notifier) Emit(ctx context.Context, ev *event.EventRequest) {
	b, err := json.Marshal(ev)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Unable to marshal event %s: %v", ev.Op, err)
		return
	}

	topic := xcontext.Configs(ctx).Kafka.EventTopic
	err = n.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(ev.Metadata.Channel), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Unable to publish event %s: %v", ev.Op, err)
	}
}
