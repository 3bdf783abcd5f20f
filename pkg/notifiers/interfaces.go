package notifiers

import "context"

// Notifier sends "posted" events to a downstream sink (webhook, queue, topic).
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, evt Event) error
}
