package state

import (
	"github.com/yourusername/maze-spectator/internal/protocol"
)

// Match is the live state of one game instance. Width, Height and BaseTiles
// are fixed at open; Food and Entities are mutated by deltas but always keep
// exactly Width*Height slots. Positions index the grids as x*Height+y.
//
// EntityGen and FoodGen are generation counters: EntityGen increments on every
// applied delta, FoodGen only when the delta actually touched food. A consumer
// that remembers the counters from its last render can detect "this match
// changed" without comparing grids.
type Match struct {
	ID        int
	Width     int
	Height    int
	BaseTiles []protocol.BaseTile
	Food      []protocol.FoodKind
	Entities  []*protocol.Entity
	EntityGen uint64
	FoodGen   uint64
}

// Size returns the slot count of the match grids.
func (m *Match) Size() int {
	return m.Width * m.Height
}

// EntityAt returns the entity occupying pos, or nil.
func (m *Match) EntityAt(pos int) *protocol.Entity {
	if pos < 0 || pos >= len(m.Entities) {
		return nil
	}
	return m.Entities[pos]
}

// FoodAt returns the food at pos, or FoodNone.
func (m *Match) FoodAt(pos int) protocol.FoodKind {
	if pos < 0 || pos >= len(m.Food) {
		return protocol.FoodNone
	}
	return m.Food[pos]
}

func newMatch(ev protocol.MatchOpened) *Match {
	return &Match{
		ID:        ev.ID,
		Width:     ev.Width,
		Height:    ev.Height,
		BaseTiles: ev.BaseTiles,
		Food:      ev.Food,
		Entities:  ev.Entities,
	}
}
