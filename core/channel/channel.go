package channel

import (
	"context"

	"github.com/kilianp07/cpsim/core/model"
)

// Connector opens publish channels for charge point identities.
type Connector interface {
	// Connect establishes a channel session for one identity. Failures wrap
	// ErrConnection.
	Connect(ctx context.Context, id model.Identity) (Handle, error)
}

// Handle is one established channel session. A handle is owned by a single
// agent; publishes on a handle are attempted in call order.
type Handle interface {
	// Publish sends the payload best-effort without waiting for delivery.
	// Failures wrap ErrPublish.
	Publish(ctx context.Context, payload []byte) error

	// Disconnect releases the channel. It is safe to call more than once.
	Disconnect()
}
