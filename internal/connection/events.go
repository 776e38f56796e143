package connection

import "time"

// Event represents lifecycle events from the connection manager
type Event interface {
	isEvent()
}

// ConnectingEvent is sent when a connection attempt starts
type ConnectingEvent struct{}

func (ConnectingEvent) isEvent() {}

// ConnectedEvent is sent when the stream is established
type ConnectedEvent struct{}

func (ConnectedEvent) isEvent() {}

// DisconnectedEvent is sent at most once per disconnect episode, after the
// close grace window has elapsed without a successful reconnect
type DisconnectedEvent struct {
	Err error
}

func (DisconnectedEvent) isEvent() {}

// RetryingEvent is sent when a reconnect attempt has been scheduled
type RetryingEvent struct {
	Delay time.Duration
}

func (RetryingEvent) isEvent() {}
