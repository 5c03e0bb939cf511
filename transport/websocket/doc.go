// Package websocket pushes live game updates to browser clients.
//
// A single Hub owns every connection. Clients join one session by ID and
// receive JSON Messages:
//
//   - state_update carries the full GameState after a mutation
//   - delivery carries one engine.Delivery as trains arrive
//   - tick carries a short clock and balance summary from the simulation driver
//   - game_event carries a service.GameEvent describing a player action
//
// Broadcast calls encode the message immediately and queue it for the hub
// loop without blocking; when the queue is full the message is dropped and
// logged. Clients that cannot keep up are disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
