package protocol

import (
	"strconv"
	"strings"
)

// Encoding mirrors the server's serializer so tests and local feed tooling can
// produce byte-exact messages. Sparse grids interleave decimal empty-run
// counts with value tokens; value tokens never start with a digit, which is
// what keeps the format decodable.

// EncodeOpen renders a MatchOpened as an `i` message.
func EncodeOpen(ev MatchOpened) string {
	var b strings.Builder
	b.WriteByte(TagOpen)
	b.WriteString(strconv.Itoa(ev.ID))
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(ev.Width))
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(ev.Height))
	b.WriteByte('_')
	for _, tile := range ev.BaseTiles {
		b.WriteByte(byte(tile))
	}
	b.WriteByte('|')
	skip := 0
	for _, ent := range ev.Entities {
		if ent == nil {
			skip++
			continue
		}
		flushSkip(&b, &skip)
		writeEntity(&b, *ent)
	}
	flushSkip(&b, &skip)
	b.WriteByte('|')
	for _, kind := range ev.Food {
		if kind == FoodNone {
			skip++
			continue
		}
		flushSkip(&b, &skip)
		b.WriteByte(byte(kind))
	}
	flushSkip(&b, &skip)
	return b.String()
}

// EncodeDelta renders a MatchDelta as a `d` message. Empty segments are
// omitted entirely, tag included.
func EncodeDelta(ev MatchDelta) string {
	var b strings.Builder
	b.WriteByte(TagDelta)
	b.WriteString(strconv.Itoa(ev.ID))
	b.WriteByte('_')
	if len(ev.Died) > 0 {
		b.WriteByte('a')
		for _, pos := range ev.Died {
			b.WriteString(strconv.Itoa(pos))
			b.WriteByte(',')
		}
	}
	if len(ev.Moved) > 0 {
		b.WriteByte('b')
		for _, mv := range ev.Moved {
			b.WriteString(strconv.Itoa(mv.From))
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(mv.To))
			b.WriteByte(',')
		}
	}
	if len(ev.Spawned) > 0 {
		b.WriteByte('c')
		for _, sp := range ev.Spawned {
			b.WriteString(strconv.Itoa(sp.Pos))
			writeEntity(&b, sp.Entity)
		}
	}
	if len(ev.Eaten) > 0 {
		b.WriteByte('d')
		for _, pos := range ev.Eaten {
			b.WriteString(strconv.Itoa(pos))
			b.WriteByte(',')
		}
	}
	if len(ev.FoodSpawned) > 0 {
		b.WriteByte('e')
		for _, fs := range ev.FoodSpawned {
			b.WriteString(strconv.Itoa(fs.Pos))
			b.WriteByte(byte(fs.Kind))
		}
	}
	if len(ev.Changed) > 0 {
		b.WriteByte('f')
		for _, ch := range ev.Changed {
			b.WriteString(strconv.Itoa(ch.Pos))
			writeDynamic(&b, ch.Dynamic)
		}
	}
	return b.String()
}

// EncodeClosed renders a MatchClosed as a `c` message.
func EncodeClosed(ev MatchClosed) string {
	return string(TagClosed) + strconv.Itoa(ev.ID)
}

// EncodeLeaderboard renders a LeaderboardUpdated as an `l` message.
func EncodeLeaderboard(ev LeaderboardUpdated) string {
	var b strings.Builder
	b.WriteByte(TagLeaderboard)
	for _, entry := range ev.Entries {
		b.WriteString(strconv.Itoa(entry.ID))
		b.WriteByte('_')
		b.WriteString(entry.Username)
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(entry.HighScore))
		b.WriteByte(',')
	}
	return b.String()
}

func writeDynamic(b *strings.Builder, dyn Dynamic) {
	b.WriteByte(byte(dyn.Direction))
	if dyn.Score != nil {
		b.WriteString(strconv.Itoa(*dyn.Score))
	}
	if dyn.Invulnerable {
		b.WriteByte('I')
	} else {
		b.WriteByte('V')
	}
}

func writeEntity(b *strings.Builder, ent Entity) {
	writeDynamic(b, ent.Dynamic)
	b.WriteByte(byte(ent.Kind))
	// The variant is a single wire digit; consumers cycle it modulo their
	// sprite count anyway.
	b.WriteByte(byte('0' + ent.Variant%10))
}

func flushSkip(b *strings.Builder, skip *int) {
	if *skip > 0 {
		b.WriteString(strconv.Itoa(*skip))
		*skip = 0
	}
}
