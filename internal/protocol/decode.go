package protocol

import (
	"fmt"
	"strings"
)

// DecodeError describes a structurally invalid message. The whole message is
// dropped by the caller; decoding is never retried.
type DecodeError struct {
	Raw    string
	Pos    int
	Reason string
}

func (e *DecodeError) Error() string {
	raw := e.Raw
	if len(raw) > 64 {
		raw = raw[:64] + "..."
	}
	return fmt.Sprintf("protocol: invalid message %q at offset %d: %s", raw, e.Pos, e.Reason)
}

// Decode parses a raw server message into one of the event variants. It is
// pure and keeps no state between calls.
func Decode(raw string) (Event, error) {
	if raw == "" {
		return nil, &DecodeError{Raw: raw, Pos: 0, Reason: "empty message"}
	}

	sc := &scanner{raw: raw, pos: 1}
	switch raw[0] {
	case TagOpen:
		return decodeOpen(sc)
	case TagDelta:
		return decodeDelta(sc)
	case TagClosed:
		return decodeClosed(sc)
	case TagLeaderboard:
		return decodeLeaderboard(sc)
	default:
		return nil, &DecodeError{Raw: raw, Pos: 0, Reason: fmt.Sprintf("unknown message tag %q", raw[0])}
	}
}

func decodeOpen(sc *scanner) (Event, error) {
	ev := MatchOpened{}
	var err error
	if ev.ID, err = sc.uint("match id"); err != nil {
		return nil, err
	}
	if err = sc.expect('_'); err != nil {
		return nil, err
	}
	if ev.Width, err = sc.uint("width"); err != nil {
		return nil, err
	}
	if err = sc.expect('_'); err != nil {
		return nil, err
	}
	if ev.Height, err = sc.uint("height"); err != nil {
		return nil, err
	}
	if err = sc.expect('_'); err != nil {
		return nil, err
	}

	for !sc.eof() && sc.peek() != '|' {
		c := sc.next()
		switch BaseTile(c) {
		case TileWall, TileFloor:
			ev.BaseTiles = append(ev.BaseTiles, BaseTile(c))
		default:
			return nil, sc.errAt(sc.pos-1, fmt.Sprintf("invalid base tile %q", c))
		}
	}
	if err = sc.expect('|'); err != nil {
		return nil, err
	}

	for !sc.eof() && sc.peek() != '|' {
		if isDigit(sc.peek()) {
			n, err := sc.uint("empty run")
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				ev.Entities = append(ev.Entities, nil)
			}
			continue
		}
		ent, err := decodeEntity(sc)
		if err != nil {
			return nil, err
		}
		ev.Entities = append(ev.Entities, &ent)
	}
	if err = sc.expect('|'); err != nil {
		return nil, err
	}

	for !sc.eof() {
		if isDigit(sc.peek()) {
			n, err := sc.uint("empty run")
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				ev.Food = append(ev.Food, FoodNone)
			}
			continue
		}
		kind, err := decodeFood(sc)
		if err != nil {
			return nil, err
		}
		ev.Food = append(ev.Food, kind)
	}

	return ev, nil
}

// deltaSegments lists the six optional delta segments in their fixed wire
// order. Each parser consumes exactly one record; records repeat for as long
// as the cursor sits on a decimal digit, since every record starts with a
// position and every tag is a lowercase letter.
var deltaSegments = []struct {
	tag    byte
	record func(*scanner, *MatchDelta) error
}{
	{'a', func(sc *scanner, d *MatchDelta) error {
		pos, err := decodeCommaPos(sc)
		if err != nil {
			return err
		}
		d.Died = append(d.Died, pos)
		return nil
	}},
	{'b', func(sc *scanner, d *MatchDelta) error {
		from, err := decodeCommaPos(sc)
		if err != nil {
			return err
		}
		to, err := decodeCommaPos(sc)
		if err != nil {
			return err
		}
		d.Moved = append(d.Moved, Move{From: from, To: to})
		return nil
	}},
	{'c', func(sc *scanner, d *MatchDelta) error {
		pos, err := sc.uint("position")
		if err != nil {
			return err
		}
		ent, err := decodeEntity(sc)
		if err != nil {
			return err
		}
		d.Spawned = append(d.Spawned, Spawn{Pos: pos, Entity: ent})
		return nil
	}},
	{'d', func(sc *scanner, d *MatchDelta) error {
		pos, err := decodeCommaPos(sc)
		if err != nil {
			return err
		}
		d.Eaten = append(d.Eaten, pos)
		return nil
	}},
	{'e', func(sc *scanner, d *MatchDelta) error {
		pos, err := sc.uint("position")
		if err != nil {
			return err
		}
		kind, err := decodeFood(sc)
		if err != nil {
			return err
		}
		d.FoodSpawned = append(d.FoodSpawned, FoodSpawn{Pos: pos, Kind: kind})
		return nil
	}},
	{'f', func(sc *scanner, d *MatchDelta) error {
		pos, err := sc.uint("position")
		if err != nil {
			return err
		}
		dyn, err := decodeDynamic(sc)
		if err != nil {
			return err
		}
		d.Changed = append(d.Changed, MetadataChange{Pos: pos, Dynamic: dyn})
		return nil
	}},
}

func decodeDelta(sc *scanner) (Event, error) {
	ev := MatchDelta{}
	var err error
	if ev.ID, err = sc.uint("match id"); err != nil {
		return nil, err
	}
	if err = sc.expect('_'); err != nil {
		return nil, err
	}

	for _, seg := range deltaSegments {
		if sc.eof() || sc.peek() != seg.tag {
			continue
		}
		sc.next()
		for !sc.eof() && isDigit(sc.peek()) {
			if err := seg.record(sc, &ev); err != nil {
				return nil, err
			}
		}
	}
	if !sc.eof() {
		return nil, sc.err(fmt.Sprintf("unexpected character %q after delta segments", sc.peek()))
	}

	return ev, nil
}

func decodeClosed(sc *scanner) (Event, error) {
	id, err := sc.uint("match id")
	if err != nil {
		return nil, err
	}
	if !sc.eof() {
		return nil, sc.err(fmt.Sprintf("unexpected character %q after match id", sc.peek()))
	}
	return MatchClosed{ID: id}, nil
}

func decodeLeaderboard(sc *scanner) (Event, error) {
	ev := LeaderboardUpdated{}
	for !sc.eof() {
		var entry LeaderboardEntry
		var err error
		if entry.ID, err = sc.uint("user id"); err != nil {
			return nil, err
		}
		if err = sc.expect('_'); err != nil {
			return nil, err
		}
		start := sc.pos
		for !sc.eof() && sc.peek() != '_' {
			sc.next()
		}
		entry.Username = sc.raw[start:sc.pos]
		if err = sc.expect('_'); err != nil {
			return nil, err
		}
		if entry.HighScore, err = sc.uint("high score"); err != nil {
			return nil, err
		}
		if err = sc.expect(','); err != nil {
			return nil, err
		}
		ev.Entries = append(ev.Entries, entry)
	}
	return ev, nil
}

// decodeDynamic reads direction, an optional live-score digit run and the
// invulnerability character.
func decodeDynamic(sc *scanner) (Dynamic, error) {
	var dyn Dynamic
	if sc.eof() {
		return dyn, sc.err("expected direction, got end of input")
	}
	dyn.Direction = Direction(sc.next())
	if !dyn.Direction.Valid() {
		return dyn, sc.errAt(sc.pos-1, fmt.Sprintf("invalid direction %q", byte(dyn.Direction)))
	}
	if !sc.eof() && isDigit(sc.peek()) {
		score, err := sc.uint("live score")
		if err != nil {
			return dyn, err
		}
		dyn.Score = &score
	}
	if sc.eof() {
		return dyn, sc.err("expected invulnerability flag, got end of input")
	}
	switch c := sc.next(); c {
	case 'I':
		dyn.Invulnerable = true
	case 'V':
		dyn.Invulnerable = false
	default:
		return dyn, sc.errAt(sc.pos-1, fmt.Sprintf("invalid invulnerability flag %q", c))
	}
	return dyn, nil
}

// decodeEntity reads a full entity token: dynamic metadata, kind and variant.
func decodeEntity(sc *scanner) (Entity, error) {
	var ent Entity
	dyn, err := decodeDynamic(sc)
	if err != nil {
		return ent, err
	}
	ent.Dynamic = dyn
	if sc.eof() {
		return ent, sc.err("expected entity kind, got end of input")
	}
	switch c := sc.next(); EntityKind(c) {
	case KindPlayer, KindHazard:
		ent.Kind = EntityKind(c)
	default:
		return ent, sc.errAt(sc.pos-1, fmt.Sprintf("invalid entity kind %q", c))
	}
	if sc.eof() || !isDigit(sc.peek()) {
		return ent, sc.err("expected variant digit")
	}
	ent.Variant = int(sc.next() - '0')
	return ent, nil
}

func decodeFood(sc *scanner) (FoodKind, error) {
	if sc.eof() {
		return FoodNone, sc.err("expected food kind, got end of input")
	}
	switch c := sc.next(); FoodKind(c) {
	case FoodFruit, FoodPower:
		return FoodKind(c), nil
	default:
		return FoodNone, sc.errAt(sc.pos-1, fmt.Sprintf("invalid food kind %q", c))
	}
}

func decodeCommaPos(sc *scanner) (int, error) {
	pos, err := sc.uint("position")
	if err != nil {
		return 0, err
	}
	if err := sc.expect(','); err != nil {
		return 0, err
	}
	return pos, nil
}

// scanner walks a raw message left to right.
type scanner struct {
	raw string
	pos int
}

func (sc *scanner) eof() bool {
	return sc.pos >= len(sc.raw)
}

func (sc *scanner) peek() byte {
	return sc.raw[sc.pos]
}

func (sc *scanner) next() byte {
	c := sc.raw[sc.pos]
	sc.pos++
	return c
}

// uint consumes a maximal run of decimal digits.
func (sc *scanner) uint(what string) (int, error) {
	if sc.eof() || !isDigit(sc.peek()) {
		return 0, sc.err("expected " + what)
	}
	n := 0
	for !sc.eof() && isDigit(sc.peek()) {
		n = n*10 + int(sc.next()-'0')
		if n > 1<<30 {
			return 0, sc.err(what + " out of range")
		}
	}
	return n, nil
}

func (sc *scanner) expect(c byte) error {
	if sc.eof() || sc.peek() != c {
		return sc.err(fmt.Sprintf("expected %q", c))
	}
	sc.pos++
	return nil
}

func (sc *scanner) err(reason string) *DecodeError {
	if sc.eof() && !strings.Contains(reason, "end of input") {
		reason += ", got end of input"
	}
	return sc.errAt(sc.pos, reason)
}

func (sc *scanner) errAt(pos int, reason string) *DecodeError {
	return &DecodeError{Raw: sc.raw, Pos: pos, Reason: reason}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
