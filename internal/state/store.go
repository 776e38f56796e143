package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/brunoga/deep/v2"
	"github.com/google/uuid"

	"github.com/yourusername/maze-spectator/internal/protocol"
)

// InconsistencyError reports a mismatch between a delta and the stored match
// state. Soft inconsistencies skip the offending record and keep the match;
// a hard one means the grid can no longer be trusted, so the match has already
// been discarded when Apply returns.
type InconsistencyError struct {
	MatchID int
	Hard    bool
	Reason  string
}

func (e *InconsistencyError) Error() string {
	severity := "soft"
	if e.Hard {
		severity = "hard"
	}
	return fmt.Sprintf("state: %s inconsistency in match %d: %s", severity, e.MatchID, e.Reason)
}

// Store owns the match table and the leaderboard. All mutation goes through
// Apply; consumers only ever receive copies.
type Store struct {
	mu          sync.RWMutex
	matches     map[int]*Match
	leaderboard []protocol.LeaderboardEntry
	subscribers map[uuid.UUID]func(protocol.Event)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		matches:     make(map[int]*Match),
		subscribers: make(map[uuid.UUID]func(protocol.Event)),
	}
}

// Apply dispatches a decoded event to the match table. Events must be applied
// in stream order. A non-nil error never means the store is unusable: soft
// inconsistencies leave the match in place minus the skipped record, and a
// hard one has already removed the match it names.
func (s *Store) Apply(ev protocol.Event) error {
	s.mu.Lock()
	var err error
	notify := true
	switch ev := ev.(type) {
	case protocol.MatchOpened:
		err = s.applyOpen(ev)
		notify = err == nil
	case protocol.MatchDelta:
		err = s.applyDelta(ev)
		var inc *InconsistencyError
		if errors.As(err, &inc) && inc.Hard {
			notify = false
		}
	case protocol.MatchClosed:
		delete(s.matches, ev.ID)
	case protocol.LeaderboardUpdated:
		s.leaderboard = append([]protocol.LeaderboardEntry(nil), ev.Entries...)
	default:
		err = fmt.Errorf("state: unhandled event type %T", ev)
		notify = false
	}
	var callbacks []func(protocol.Event)
	if notify {
		callbacks = make([]func(protocol.Event), 0, len(s.subscribers))
		for _, cb := range s.subscribers {
			callbacks = append(callbacks, cb)
		}
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(ev)
	}
	return err
}

func (s *Store) applyOpen(ev protocol.MatchOpened) error {
	size := ev.Width * ev.Height
	if size <= 0 {
		return &InconsistencyError{MatchID: ev.ID, Reason: fmt.Sprintf("open with degenerate dimensions %dx%d", ev.Width, ev.Height)}
	}
	if len(ev.BaseTiles) != size || len(ev.Entities) != size || len(ev.Food) != size {
		return &InconsistencyError{
			MatchID: ev.ID,
			Reason: fmt.Sprintf("open grid lengths %d/%d/%d do not match %dx%d",
				len(ev.BaseTiles), len(ev.Entities), len(ev.Food), ev.Width, ev.Height),
		}
	}
	s.matches[ev.ID] = newMatch(ev)
	return nil
}

// applyDelta mutates one match in the fixed segment order: entity deaths,
// moves and spawns, then food eaten and spawned, then metadata changes. The
// order is significant: a death must vacate a slot before a spawn in the same
// delta may target it, and metadata changes address post-move positions.
func (s *Store) applyDelta(ev protocol.MatchDelta) error {
	m, ok := s.matches[ev.ID]
	if !ok {
		return &InconsistencyError{MatchID: ev.ID, Reason: "delta for unknown match"}
	}

	hard := func(format string, args ...any) error {
		delete(s.matches, ev.ID)
		return &InconsistencyError{MatchID: ev.ID, Hard: true, Reason: fmt.Sprintf(format, args...)}
	}
	var soft []error

	size := m.Size()
	for _, pos := range ev.Died {
		if pos < 0 || pos >= size {
			return hard("death at position %d outside %d-slot grid", pos, size)
		}
		if m.Entities[pos] == nil {
			return hard("death at empty position %d", pos)
		}
		m.Entities[pos] = nil
	}

	for _, mv := range ev.Moved {
		if mv.From < 0 || mv.From >= size || mv.To < 0 || mv.To >= size {
			return hard("move %d->%d outside %d-slot grid", mv.From, mv.To, size)
		}
		if m.Entities[mv.From] == nil {
			return hard("move from empty position %d", mv.From)
		}
		if m.Entities[mv.To] != nil {
			return hard("move %d->%d into occupied destination", mv.From, mv.To)
		}
		m.Entities[mv.To] = m.Entities[mv.From]
		m.Entities[mv.From] = nil
	}

	for _, sp := range ev.Spawned {
		if sp.Pos < 0 || sp.Pos >= size {
			return hard("spawn at position %d outside %d-slot grid", sp.Pos, size)
		}
		if m.Entities[sp.Pos] != nil {
			return hard("spawn at occupied position %d", sp.Pos)
		}
		ent := sp.Entity
		m.Entities[sp.Pos] = &ent
	}

	for _, pos := range ev.Eaten {
		if pos < 0 || pos >= size {
			return hard("food eaten at position %d outside %d-slot grid", pos, size)
		}
		if m.Food[pos] == protocol.FoodNone {
			soft = append(soft, &InconsistencyError{MatchID: ev.ID, Reason: fmt.Sprintf("food eaten at empty position %d", pos)})
			continue
		}
		m.Food[pos] = protocol.FoodNone
	}

	for _, fs := range ev.FoodSpawned {
		if fs.Pos < 0 || fs.Pos >= size {
			return hard("food spawn at position %d outside %d-slot grid", fs.Pos, size)
		}
		// Spawning over existing food is legal: it is how the server
		// encodes a food kind change.
		m.Food[fs.Pos] = fs.Kind
	}

	for _, ch := range ev.Changed {
		if ch.Pos < 0 || ch.Pos >= size {
			return hard("metadata change at position %d outside %d-slot grid", ch.Pos, size)
		}
		if m.Entities[ch.Pos] == nil {
			soft = append(soft, &InconsistencyError{MatchID: ev.ID, Reason: fmt.Sprintf("metadata change at empty position %d", ch.Pos)})
			continue
		}
		m.Entities[ch.Pos].Dynamic = ch.Dynamic
	}

	m.EntityGen++
	if len(ev.Eaten) > 0 || len(ev.FoodSpawned) > 0 {
		m.FoodGen++
	}
	return errors.Join(soft...)
}

// Snapshot returns a deep copy of the match, safe for the consumer to hold and
// mutate while the store keeps applying deltas.
func (s *Store) Snapshot(id int) (*Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, false
	}
	return deep.MustCopy(m), true
}

// MatchIDs lists the ids of all live matches in ascending order.
func (s *Store) MatchIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.matches))
	for id := range s.matches {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Leaderboard returns a copy of the most recent leaderboard replacement.
func (s *Store) Leaderboard() []protocol.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.LeaderboardEntry(nil), s.leaderboard...)
}

// Reset drops every match. Called on reconnect: the new connection re-sends an
// open message for every live match, and anything not re-opened is stale.
// The leaderboard survives; it is connection independent and fully replaced on
// its next update anyway.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = make(map[int]*Match)
}

// Subscribe registers a callback invoked synchronously, in stream order, for
// every event the store applies. The returned id cancels it via Unsubscribe.
func (s *Store) Subscribe(cb func(protocol.Event)) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.subscribers[id] = cb
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (s *Store) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}
