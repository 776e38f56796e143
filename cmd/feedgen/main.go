// Command feedgen serves a scripted spectator feed so the client can be run
// without the real tournament server.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/maze-spectator/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP service address")
	tick := flag.Duration("tick", 500*time.Millisecond, "Delay between feed messages")
	flag.Parse()

	http.HandleFunc("/spectate", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Upgrade error:", err)
			return
		}
		go serveFeed(conn, *tick)
	})

	log.Printf("Serving scripted feed on %s/spectate", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func serveFeed(conn *websocket.Conn, tick time.Duration) {
	defer conn.Close()

	// Drain the client side so pings and closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		for _, msg := range matchScript() {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
			time.Sleep(tick)
		}
	}
}

// matchScript builds one full lifecycle of a 4x3 match: open, a handful of
// deltas, close, plus a leaderboard update.
func matchScript() []string {
	const matchID = 7
	score := 120

	open := protocol.MatchOpened{
		ID:     matchID,
		Width:  4,
		Height: 3,
		BaseTiles: []protocol.BaseTile{
			'X', 'X', 'X', 'L', 'L', 'L', 'L', 'L', 'L', 'X', 'X', 'X',
		},
		Entities: make([]*protocol.Entity, 12),
		Food:     make([]protocol.FoodKind, 12),
	}
	open.Entities[4] = &protocol.Entity{
		Kind:    protocol.KindPlayer,
		Variant: 1,
		Dynamic: protocol.Dynamic{Direction: protocol.East, Score: &score},
	}
	open.Entities[7] = &protocol.Entity{
		Kind:    protocol.KindHazard,
		Variant: 3,
		Dynamic: protocol.Dynamic{Direction: protocol.South},
	}
	open.Food[5] = protocol.FoodFruit
	open.Food[8] = protocol.FoodPower

	eaten := score + 10
	return []string{
		protocol.EncodeOpen(open),
		protocol.EncodeLeaderboard(protocol.LeaderboardUpdated{
			Entries: []protocol.LeaderboardEntry{
				{ID: 1, Username: "ada", HighScore: 410},
				{ID: 2, Username: "grace", HighScore: 377},
			},
		}),
		protocol.EncodeDelta(protocol.MatchDelta{
			ID:    matchID,
			Moved: []protocol.Move{{From: 4, To: 5}},
			Eaten: []int{5},
			Changed: []protocol.MetadataChange{
				{Pos: 5, Dynamic: protocol.Dynamic{Direction: protocol.East, Score: &eaten}},
			},
		}),
		protocol.EncodeDelta(protocol.MatchDelta{
			ID:    matchID,
			Moved: []protocol.Move{{From: 7, To: 6}},
			FoodSpawned: []protocol.FoodSpawn{
				{Pos: 4, Kind: protocol.FoodFruit},
			},
		}),
		protocol.EncodeDelta(protocol.MatchDelta{
			ID:   matchID,
			Died: []int{6},
			Spawned: []protocol.Spawn{
				{Pos: 7, Entity: protocol.Entity{
					Kind:    protocol.KindHazard,
					Variant: 4,
					Dynamic: protocol.Dynamic{Direction: protocol.North},
				}},
			},
		}),
		protocol.EncodeClosed(protocol.MatchClosed{ID: matchID}),
	}
}
