// Package mcp exposes the memory match game to AI agents over the Model
// Context Protocol.
//
// Client is a thin proxy: every tool call becomes a request to the REST API,
// so the same session can be watched in a browser while an agent plays it.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, start_game, flip_card, reset_game
//   - list_configs, leaderboard, game_instructions
//
// Boards are rendered five cards per row with each card's index above it.
// Face-down cards show "?", matched cards are drawn in parentheses.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
