package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yourusername/maze-spectator/internal/config"
	"github.com/yourusername/maze-spectator/internal/connection"
	"github.com/yourusername/maze-spectator/internal/protocol"
	"github.com/yourusername/maze-spectator/internal/spectator"
	"github.com/yourusername/maze-spectator/internal/state"
)

func main() {
	cfg := config.Load()

	serverURL := flag.String("server", cfg.ServerURL, "WebSocket URL of the tournament stream")
	matchID := flag.Int("match", 0, "Only report this match id (0 = all matches)")
	flag.Parse()

	store := state.NewStore()
	session := spectator.NewSession(connection.Config{
		URL:            *serverURL,
		ConnectTimeout: cfg.ConnectTimeout,
		RetryInitial:   cfg.RetryInitial,
		RetryMax:       cfg.RetryMax,
	}, store)

	store.Subscribe(func(ev protocol.Event) {
		reportEvent(store, ev, *matchID)
	})
	session.OnEvent(reportLifecycle)

	log.Printf("Connecting to %s", *serverURL)
	session.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	session.Stop()
	log.Printf("Shut down")
}

func reportLifecycle(ev connection.Event) {
	switch ev := ev.(type) {
	case connection.ConnectingEvent:
		log.Printf("Connecting...")
	case connection.ConnectedEvent:
		log.Printf("Connected")
	case connection.DisconnectedEvent:
		log.Printf("Disconnected: %v (reconnecting)", ev.Err)
	case connection.RetryingEvent:
		log.Printf("Retrying in %s", ev.Delay)
	}
}

func reportEvent(store *state.Store, ev protocol.Event, matchID int) {
	switch ev := ev.(type) {
	case protocol.MatchOpened:
		if matchID != 0 && ev.ID != matchID {
			return
		}
		log.Printf("Match %d opened (%dx%d)", ev.ID, ev.Width, ev.Height)
	case protocol.MatchDelta:
		if matchID != 0 && ev.ID != matchID {
			return
		}
		m, ok := store.Snapshot(ev.ID)
		if !ok {
			return
		}
		log.Printf("Match %d: %d died, %d moved, %d spawned, %d food eaten, %d food spawned (gen %d/%d)",
			ev.ID, len(ev.Died), len(ev.Moved), len(ev.Spawned), len(ev.Eaten), len(ev.FoodSpawned),
			m.EntityGen, m.FoodGen)
	case protocol.MatchClosed:
		if matchID != 0 && ev.ID != matchID {
			return
		}
		log.Printf("Match %d closed", ev.ID)
	case protocol.LeaderboardUpdated:
		for i, entry := range ev.Entries {
			if i == 10 {
				break
			}
			log.Printf("Leaderboard #%d: %s (%d)", i+1, entry.Username, entry.HighScore)
		}
	}
}
