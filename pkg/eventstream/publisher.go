package eventstream

import "context"

// Publisher publishes memory change events to an event stream backend.
type Publisher interface {
	PublishMemoryChange(ctx context.Context, event *MemoryChangedEvent) error
	Close() error
}
