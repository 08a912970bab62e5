package notify

import (
	"context"

	"github.com/dmccall/sports-arb/pkg/types"
)

// Sink delivers signal events to the outside world. Formatting and
// fan-out past the sink are someone else's job.
type Sink interface {
	// Publish delivers one event. Delivery failures are the caller's to
	// log; the engine never blocks on a sink.
	Publish(ctx context.Context, ev types.Event) error

	// Close releases the sink's resources.
	Close() error
}
