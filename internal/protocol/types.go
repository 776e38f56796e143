package protocol // wire format shared between the tournament server and spectators

// Message type tags. The first character of every raw message selects the
// message class.
const (
	TagOpen        = 'i'
	TagDelta       = 'd'
	TagClosed      = 'c'
	TagLeaderboard = 'l'
)

// Direction is a compass direction. Values are the wire characters.
type Direction byte

const (
	North Direction = 'N'
	East  Direction = 'E'
	South Direction = 'S'
	West  Direction = 'W'
)

// Valid reports whether d is one of the four compass values.
func (d Direction) Valid() bool {
	switch d {
	case North, East, South, West:
		return true
	}
	return false
}

// EntityKind distinguishes player entities from hazard creatures.
// Values are the wire characters.
type EntityKind byte

const (
	KindPlayer EntityKind = 'P'
	KindHazard EntityKind = 'M'
)

// FoodKind is the content of a food slot. FoodNone marks an empty slot and
// never appears on the wire.
type FoodKind byte

const (
	FoodNone  FoodKind = 0
	FoodFruit FoodKind = 'F'
	FoodPower FoodKind = 'P'
)

// BaseTile is a static terrain symbol. Fixed for the lifetime of a match.
type BaseTile byte

const (
	TileWall  BaseTile = 'X'
	TileFloor BaseTile = 'L'
)

// Dynamic holds the mutable per-entity fields. Score is only present for
// player entities, and only when the server includes a live score in the
// message.
type Dynamic struct {
	Direction    Direction
	Invulnerable bool
	Score        *int
}

// Entity is one occupant of an entity grid slot.
type Entity struct {
	Kind    EntityKind
	Variant int
	Dynamic Dynamic
}

// Move relocates the entity at From to the empty slot at To.
type Move struct {
	From int
	To   int
}

// Spawn places a new entity at Pos.
type Spawn struct {
	Pos    int
	Entity Entity
}

// FoodSpawn places (or replaces) food at Pos.
type FoodSpawn struct {
	Pos  int
	Kind FoodKind
}

// MetadataChange replaces the dynamic metadata of the entity at Pos.
type MetadataChange struct {
	Pos     int
	Dynamic Dynamic
}

// LeaderboardEntry is one row of the tournament-wide leaderboard.
type LeaderboardEntry struct {
	ID        int
	Username  string
	HighScore int
}

// Event is a decoded server message.
type Event interface {
	isEvent()
}

// MatchOpened carries the full initial snapshot of a match. Entities and Food
// have one slot per grid position; a nil entity or FoodNone marks an empty
// slot. Positions index the grids as x*Height+y.
type MatchOpened struct {
	ID        int
	Width     int
	Height    int
	BaseTiles []BaseTile
	Entities  []*Entity
	Food      []FoodKind
}

func (MatchOpened) isEvent() {}

// MatchDelta is an incremental change set for one match. The slices are
// applied in field order: Died, Moved, Spawned, Eaten, FoodSpawned, Changed.
type MatchDelta struct {
	ID          int
	Died        []int
	Moved       []Move
	Spawned     []Spawn
	Eaten       []int
	FoodSpawned []FoodSpawn
	Changed     []MetadataChange
}

func (MatchDelta) isEvent() {}

// MatchClosed ends a match.
type MatchClosed struct {
	ID int
}

func (MatchClosed) isEvent() {}

// LeaderboardUpdated fully replaces the leaderboard. Not tied to any match.
type LeaderboardUpdated struct {
	Entries []LeaderboardEntry
}

func (LeaderboardUpdated) isEvent() {}
