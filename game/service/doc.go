// Package service provides the business logic layer for the memory match game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration listing, loading and saving
//   - Start, reset and flip with player-facing rejection reasons
//   - State fan-out to notifiers and the leaderboard
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval and lifecycle.
// ConfigManager manages game configuration loading and validation.
// ScoreStore persists finished games. Notifier receives every public state
// change of every session.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP, WebSocket, MCP,
// NATS) and the session controllers. Snapshots leaving the service are
// public: the value of every face-down, unmatched card is replaced by "?".
// When a session completes, its score is stored once for that deck.
//
// Usage:
//
//	sessionMgr := session.NewManager(clock.Real())
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithScoreStore(store),
//		service.WithNotifier(hub),
//	)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	state, err := gameService.Start(ctx, info.ID)
//	result, err := gameService.Flip(ctx, info.ID, 7)
package service
