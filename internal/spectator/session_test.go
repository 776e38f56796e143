package spectator

import (
	"fmt"
	"testing"

	"github.com/yourusername/maze-spectator/internal/connection"
	"github.com/yourusername/maze-spectator/internal/state"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(connection.Config{URL: "ws://localhost:0/spectate"}, state.NewStore())
	t.Cleanup(s.Stop)
	return s
}

func TestHandleRawAppliesEvents(t *testing.T) {
	s := newTestSession(t)

	s.handleRaw("i1_2_2_XLXL|1NVP2SIM01|1F1P")
	if _, ok := s.Store().Snapshot(1); !ok {
		t.Fatalf("expected an open message to create match 1")
	}

	s.handleRaw("d1_f1SI")
	m, _ := s.Store().Snapshot(1)
	if ent := m.EntityAt(1); ent == nil || !ent.Dynamic.Invulnerable {
		t.Fatalf("expected the delta to be applied: %+v", m.EntityAt(1))
	}

	s.handleRaw("c1")
	if _, ok := s.Store().Snapshot(1); ok {
		t.Fatalf("expected a close message to remove match 1")
	}
}

func TestHandleRawDropsMalformedMessages(t *testing.T) {
	s := newTestSession(t)

	s.handleRaw("i1_2_2_XLXL|1NVP2SIM01|1F1P")
	s.handleRaw("garbage")
	if s.decodeFailures != 1 {
		t.Fatalf("expected 1 decode failure, got %d", s.decodeFailures)
	}

	// The stream keeps working and a good message resets the counter.
	s.handleRaw("d1_a1,")
	if s.decodeFailures != 0 {
		t.Fatalf("expected the counter to reset, got %d", s.decodeFailures)
	}
	if _, ok := s.Store().Snapshot(1); !ok {
		t.Fatalf("malformed message must not take the match down")
	}
}

func TestHandleRawEscalatesAfterRepeatedFailures(t *testing.T) {
	s := newTestSession(t)

	for i := 0; i < decodeFailureLimit-1; i++ {
		s.handleRaw(fmt.Sprintf("x%d", i))
	}
	if s.decodeFailures != decodeFailureLimit-1 {
		t.Fatalf("expected %d failures, got %d", decodeFailureLimit-1, s.decodeFailures)
	}

	// The final failure forces a reconnect and starts the count over.
	s.handleRaw("x")
	if s.decodeFailures != 0 {
		t.Fatalf("expected the counter to reset after escalation, got %d", s.decodeFailures)
	}
	// The dial itself may already have failed; either way the manager left
	// Idle and is working on a fresh connection.
	switch got := s.manager.Status(); got {
	case connection.StatusConnecting, connection.StatusRetrying:
	default:
		t.Fatalf("expected a reconnect attempt, status = %v", got)
	}
}

func TestHandleRawHardDesyncDiscardsMatch(t *testing.T) {
	s := newTestSession(t)

	s.handleRaw("i1_2_2_XLXL|1NVP2SIM01|1F1P")
	// Move the player onto the occupied slot 2.
	s.handleRaw("d1_b1,2,")
	if _, ok := s.Store().Snapshot(1); ok {
		t.Fatalf("expected the desynchronized match to be discarded")
	}

	// A fresh open brings it back.
	s.handleRaw("i1_2_2_XLXL|1NVP2SIM01|1F1P")
	if _, ok := s.Store().Snapshot(1); !ok {
		t.Fatalf("expected a later open to re-acquire the match")
	}
}

func TestConnectedLifecycleResetsStore(t *testing.T) {
	s := newTestSession(t)

	s.handleRaw("i1_2_2_XLXL|1NVP2SIM01|1F1P")
	s.decodeFailures = 3

	s.handleLifecycle(connection.ConnectedEvent{})
	if ids := s.Store().MatchIDs(); len(ids) != 0 {
		t.Fatalf("expected stale matches to be dropped on reconnect, got %v", ids)
	}
	if s.decodeFailures != 0 {
		t.Fatalf("expected the failure counter to reset on reconnect")
	}
}
