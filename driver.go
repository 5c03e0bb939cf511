package main

import (
	"context"
	"log"
	"time"

	"github.com/wricardo/rail-logistics-game/game/engine"
	"github.com/wricardo/rail-logistics-game/game/service"
	"github.com/wricardo/rail-logistics-game/transport/websocket"
)

// stateEvery is how many driver ticks pass between full state pushes to watchers
const stateEvery = 5

// sessionLister is the part of the session manager the driver needs
type sessionLister interface {
	List() []*service.Session
}

// broadcaster is the part of the websocket hub the driver needs
type broadcaster interface {
	ClientCount(sessionID string) int
	BroadcastToSession(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID string, event string, data any)
}

// tickSummary is the payload of a tick event
type tickSummary struct {
	Day      int     `json:"day"`
	Elapsed  float64 `json:"elapsed"`
	Balance  float64 `json:"balance"`
	Vehicles int     `json:"vehicles"`
}

// simDriver advances every unpaused session in real time
type simDriver struct {
	service  service.GameService
	sessions sessionLister
	hub      broadcaster
	interval time.Duration
	count    int
}

func newSimDriver(gameService service.GameService, sessions sessionLister, hub broadcaster, interval time.Duration) *simDriver {
	return &simDriver{
		service:  gameService,
		sessions: sessions,
		hub:      hub,
		interval: interval,
	}
}

// Run ticks until ctx is cancelled
func (d *simDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Printf("[TICK] simulation driver running every %s", d.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[TICK] simulation driver stopped")
			return
		case <-ticker.C:
			d.step(ctx)
		}
	}
}

// step advances each session once by the driver interval
func (d *simDriver) step(ctx context.Context) {
	d.count++
	dt := d.interval.Seconds()

	for _, sess := range d.sessions.List() {
		result, err := d.service.Tick(ctx, sess.ID, dt)
		if err != nil {
			// Deleted between List and Tick
			continue
		}
		if result.Paused || d.hub == nil {
			continue
		}

		for _, delivery := range result.Deliveries {
			d.hub.BroadcastEvent(sess.ID, websocket.EventDelivery, delivery)
		}

		if d.hub.ClientCount(sess.ID) == 0 {
			continue
		}
		d.hub.BroadcastEvent(sess.ID, websocket.EventTick, tickSummary{
			Day:      result.Day,
			Elapsed:  result.Elapsed,
			Balance:  result.Balance,
			Vehicles: result.Vehicles,
		})

		if len(result.Deliveries) > 0 || d.count%stateEvery == 0 {
			state, err := d.service.GetGameState(ctx, sess.ID)
			if err != nil {
				continue
			}
			d.hub.BroadcastToSession(sess.ID, state)
		}
	}
}
