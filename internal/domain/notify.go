package domain

import "context"

// Dispatcher turns core events into outbound messages. Implementations own
// formatting, role mentions, and delivery; the core never builds message
// bodies itself. A dispatch failure for one event must not affect others.
type Dispatcher interface {
	DispatchJoin(ctx context.Context, ev JoinEvent) error
	DispatchWatch(ctx context.Context, ev WatchEvent) error
}
