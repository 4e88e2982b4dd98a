// Package websocket provides WebSocket transport for the memory match game.
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection has a read and a write
// goroutine. Registration, broadcasts and replies all pass through channels
// to the Run goroutine, which is the only code touching the client map.
//
// Message Protocol:
//
// Clients connect to /ws?session=<id>. Every state change of that session
// is pushed as:
//
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//
// Clients may send actions:
//
//	{"action": "start"}
//	{"action": "reset"}
//	{"action": "flip", "index": 7}
//
// A flip is answered with a "flip_result" event carrying accepted, reason
// and match flags. Failures are answered with an "error" event.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	svc := service.NewGameService(sessions, configs, service.WithNotifier(hub))
//	hub.SetHandler(svc)
package websocket
