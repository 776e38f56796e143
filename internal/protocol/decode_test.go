package protocol

import (
	"reflect"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestDecodeOpen(t *testing.T) {
	ev, err := Decode("i1_2_2_XLXL|1NVP2SIM01|1F1P")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	open, ok := ev.(MatchOpened)
	if !ok {
		t.Fatalf("expected MatchOpened, got %T", ev)
	}

	if open.ID != 1 || open.Width != 2 || open.Height != 2 {
		t.Fatalf("unexpected header: id=%d %dx%d", open.ID, open.Width, open.Height)
	}
	wantTiles := []BaseTile{TileWall, TileFloor, TileWall, TileFloor}
	if !reflect.DeepEqual(open.BaseTiles, wantTiles) {
		t.Fatalf("unexpected base tiles: %v", open.BaseTiles)
	}

	if len(open.Entities) != 4 {
		t.Fatalf("expected 4 entity slots, got %d", len(open.Entities))
	}
	if open.Entities[0] != nil || open.Entities[3] != nil {
		t.Fatalf("expected empty slots at 0 and 3")
	}
	player := open.Entities[1]
	if player == nil || player.Kind != KindPlayer || player.Variant != 2 {
		t.Fatalf("unexpected entity at slot 1: %+v", player)
	}
	if player.Dynamic.Direction != North || player.Dynamic.Invulnerable {
		t.Fatalf("unexpected player dynamic: %+v", player.Dynamic)
	}
	hazard := open.Entities[2]
	if hazard == nil || hazard.Kind != KindHazard || hazard.Variant != 0 {
		t.Fatalf("unexpected entity at slot 2: %+v", hazard)
	}
	if hazard.Dynamic.Direction != South || !hazard.Dynamic.Invulnerable {
		t.Fatalf("unexpected hazard dynamic: %+v", hazard.Dynamic)
	}

	wantFood := []FoodKind{FoodNone, FoodFruit, FoodNone, FoodPower}
	if !reflect.DeepEqual(open.Food, wantFood) {
		t.Fatalf("unexpected food grid: %v", open.Food)
	}
}

func TestDecodeOpenWithLiveScore(t *testing.T) {
	ev, err := Decode("i3_1_2_LL|E42VP71|2")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	open := ev.(MatchOpened)
	if len(open.Entities) != 2 || open.Entities[0] == nil {
		t.Fatalf("unexpected entity grid: %v", open.Entities)
	}
	ent := open.Entities[0]
	if ent.Dynamic.Direction != East || ent.Dynamic.Invulnerable {
		t.Fatalf("unexpected dynamic: %+v", ent.Dynamic)
	}
	if ent.Dynamic.Score == nil || *ent.Dynamic.Score != 42 {
		t.Fatalf("expected live score 42, got %v", ent.Dynamic.Score)
	}
	if ent.Kind != KindPlayer || ent.Variant != 7 {
		t.Fatalf("unexpected identity: %+v", ent)
	}
}

// TestDecodeDeltaWorkedExample is the reference delta: the entity at 3 dies,
// the entity at 0 moves to 1, and the entity now at 1 faces south and becomes
// invulnerable.
func TestDecodeDeltaWorkedExample(t *testing.T) {
	ev, err := Decode("d1_a3,b0,1,f1SI")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	delta, ok := ev.(MatchDelta)
	if !ok {
		t.Fatalf("expected MatchDelta, got %T", ev)
	}
	want := MatchDelta{
		ID:    1,
		Died:  []int{3},
		Moved: []Move{{From: 0, To: 1}},
		Changed: []MetadataChange{
			{Pos: 1, Dynamic: Dynamic{Direction: South, Invulnerable: true}},
		},
	}
	if !reflect.DeepEqual(delta, want) {
		t.Fatalf("unexpected delta: %+v", delta)
	}
}

func TestDecodeDeltaAllSegments(t *testing.T) {
	ev, err := Decode("d9_a1,2,b3,4,5,6,c7NVM1d8,e9Ff10WI")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	delta := ev.(MatchDelta)
	want := MatchDelta{
		ID:    9,
		Died:  []int{1, 2},
		Moved: []Move{{From: 3, To: 4}, {From: 5, To: 6}},
		Spawned: []Spawn{
			{Pos: 7, Entity: Entity{Kind: KindHazard, Variant: 1, Dynamic: Dynamic{Direction: North}}},
		},
		Eaten:       []int{8},
		FoodSpawned: []FoodSpawn{{Pos: 9, Kind: FoodFruit}},
		Changed: []MetadataChange{
			{Pos: 10, Dynamic: Dynamic{Direction: West, Invulnerable: true}},
		},
	}
	if !reflect.DeepEqual(delta, want) {
		t.Fatalf("unexpected delta: %+v", delta)
	}
}

func TestDecodeDeltaEmptyBody(t *testing.T) {
	ev, err := Decode("d4_")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	delta := ev.(MatchDelta)
	if delta.ID != 4 {
		t.Fatalf("unexpected id: %d", delta.ID)
	}
	if len(delta.Died)+len(delta.Moved)+len(delta.Spawned)+len(delta.Eaten)+len(delta.FoodSpawned)+len(delta.Changed) != 0 {
		t.Fatalf("expected all segments empty: %+v", delta)
	}
}

func TestDecodeClosed(t *testing.T) {
	ev, err := Decode("c12")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if closed, ok := ev.(MatchClosed); !ok || closed.ID != 12 {
		t.Fatalf("expected MatchClosed{12}, got %#v", ev)
	}
}

func TestDecodeLeaderboard(t *testing.T) {
	ev, err := Decode("l1_ada_410,2_grace_377,")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	lb, ok := ev.(LeaderboardUpdated)
	if !ok {
		t.Fatalf("expected LeaderboardUpdated, got %T", ev)
	}
	want := []LeaderboardEntry{
		{ID: 1, Username: "ada", HighScore: 410},
		{ID: 2, Username: "grace", HighScore: 377},
	}
	if !reflect.DeepEqual(lb.Entries, want) {
		t.Fatalf("unexpected entries: %+v", lb.Entries)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"unknown tag", "x1"},
		{"open truncated header", "i1_2"},
		{"open invalid tile", "i1_2_2_XQXL|4|4"},
		{"open missing food section", "i1_2_2_XLXL|4"},
		{"open invalid entity direction", "i1_2_2_XLXL|QVP1" + "3|4"},
		{"open invalid food kind", "i1_2_2_XLXL|4|1Z2"},
		{"delta missing underscore", "d1a3,"},
		{"delta missing comma", "d1_a3"},
		{"delta invalid direction", "d1_c0ZVP1"},
		{"delta invalid invulnerability flag", "d1_f1SX"},
		{"delta truncated dynamic", "d1_f1S"},
		{"delta out-of-order segments", "d1_b0,1,a3,"},
		{"delta invalid food kind", "d1_e0X"},
		{"delta missing variant", "d1_c0NVM"},
		{"closed trailing garbage", "c12x"},
		{"leaderboard missing comma", "l1_ada_410"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := Decode(tc.raw)
			if err == nil {
				t.Fatalf("expected decode error, got %#v", ev)
			}
			var decodeErr *DecodeError
			if !asDecodeError(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T: %v", err, err)
			}
		})
	}
}

func asDecodeError(err error, target **DecodeError) bool {
	de, ok := err.(*DecodeError)
	if ok {
		*target = de
	}
	return ok
}
