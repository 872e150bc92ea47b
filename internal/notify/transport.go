package notify

import "context"

// Transport delivers rendered alert messages to an external channel.
type Transport interface {
	// Name identifies the transport in logs.
	Name() string
	// Configured reports whether the transport has usable credentials.
	// An unconfigured transport turns dispatch into a logged no-op.
	Configured() bool
	// Send delivers one message. Failures are terminal; the dispatcher does
	// not retry.
	Send(ctx context.Context, msg *Message) error
}
