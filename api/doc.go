// Package api provides HTTP REST API handlers for the memory match game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=n)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session and stop its timers
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current public state
//   - POST /api/sessions/{id}/start - Deal a new deck and play the reveal
//   - POST /api/sessions/{id}/reset - Deal a new deck and return to the start screen
//   - POST /api/sessions/{id}/flip - Flip a card ({"index": 7})
//   - GET /api/sessions/{id}/events - Server-Sent Events stream of states
//   - GET /api/sessions/{id}/qr - PNG QR code of the session URL
//
// Configuration and Scores:
//   - GET /api/configs - List presets
//   - POST /api/configs - Save a preset
//   - GET /api/configs/{name} - Get a preset
//   - GET /api/scores - Leaderboard (?config=classic&limit=10)
//   - GET /api/health - Liveness check
//
// WebSocket:
//   - GET /ws?session={id} - Push channel, see package websocket
//
// States returned by the API hide the value of every face-down card that is
// not matched. A rejected flip is a 200 response with accepted=false and a
// reason code; only an index outside the deck is a 400.
//
// Errors are returned as JSON:
//
//	{"error": "session not found: ab12"}
package api
