// Package session provides session management for the memory match game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique 4-character session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager owns every active session. Each session wraps a
// controller.Controller that runs the session's timers on the manager's
// clock, so deleting or expiring a session also stops its pending reveal,
// resolution and elapsed-time callbacks.
//
// Session Identifiers:
//
// Generated IDs are four hex characters from crypto/rand. Callers may also
// supply their own ID of up to 32 letters, digits, dashes or underscores.
// Lookups are case-insensitive.
//
// Usage:
//
//	manager := session.NewManager(clock.Real())
//
//	sess, err := manager.Create("", "classic", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess.Controller.Start()
//
//	// Hourly cleanup
//	manager.CleanupExpiredSessions(24 * time.Hour)
package session
