package spectator

import (
	"errors"
	"log"

	"github.com/yourusername/maze-spectator/internal/connection"
	"github.com/yourusername/maze-spectator/internal/protocol"
	"github.com/yourusername/maze-spectator/internal/state"
)

// decodeFailureLimit is the number of consecutive undecodable messages after
// which the session stops trusting the stream and forces a reconnect. The
// fresh connection replays an open message for every live match, which is the
// only honest way to resynchronize.
const decodeFailureLimit = 10

// Session wires a connection manager to the match store: raw messages are
// decoded and applied in arrival order, and the error policy lives here. A bad
// message is dropped without tearing the connection down; a desynchronized
// match has already been discarded by the store and comes back with the next
// open event.
type Session struct {
	manager *connection.Manager
	store   *state.Store

	// Touched only from the manager's read goroutine; messages are handled
	// strictly one at a time.
	decodeFailures int
}

// NewSession creates a session around its own manager and the given store.
func NewSession(cfg connection.Config, store *state.Store) *Session {
	s := &Session{
		manager: connection.NewManager(cfg),
		store:   store,
	}
	s.manager.OnMessage(s.handleRaw)
	s.manager.OnEvent(s.handleLifecycle)
	return s
}

// Store returns the session's match store.
func (s *Session) Store() *state.Store {
	return s.store
}

// OnEvent forwards lifecycle events to the given callback in addition to the
// session's own handling. Must be set before Start.
func (s *Session) OnEvent(callback func(connection.Event)) {
	s.manager.OnEvent(func(ev connection.Event) {
		s.handleLifecycle(ev)
		callback(ev)
	})
}

// Start opens the stream. Failures surface as lifecycle events.
func (s *Session) Start() {
	s.manager.Connect()
}

// Stop shuts the session down for good.
func (s *Session) Stop() {
	s.manager.Stop()
}

func (s *Session) handleLifecycle(ev connection.Event) {
	if _, ok := ev.(connection.ConnectedEvent); ok {
		// Everything live will be re-announced with a fresh open message;
		// whatever the table still holds from the previous stream is stale.
		s.store.Reset()
		s.decodeFailures = 0
	}
}

func (s *Session) handleRaw(raw string) {
	ev, err := protocol.Decode(raw)
	if err != nil {
		s.decodeFailures++
		log.Printf("spectator: dropping message (%d consecutive failures): %v", s.decodeFailures, err)
		if s.decodeFailures >= decodeFailureLimit {
			log.Printf("spectator: %d undecodable messages in a row, reconnecting", s.decodeFailures)
			s.decodeFailures = 0
			s.manager.Connect()
		}
		return
	}
	s.decodeFailures = 0

	if err := s.store.Apply(ev); err != nil {
		var inc *state.InconsistencyError
		if errors.As(err, &inc) && inc.Hard {
			log.Printf("spectator: match %d desynchronized, discarded until re-opened: %v", inc.MatchID, err)
			return
		}
		log.Printf("spectator: %v", err)
	}
}
