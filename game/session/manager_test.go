package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/memory-match-game/game/clock"
	"github.com/wricardo/memory-match-game/game/engine"
)

func createTestConfig() *engine.GameConfig {
	config := engine.DefaultConfig()
	config.Name = "Test Config"
	config.Description = "Test configuration"
	return config
}

func newTestManager() (*Manager, *clock.Virtual) {
	v := clock.NewVirtual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewManager(v), v
}

func TestManager_Create(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Controller == nil {
			t.Fatal("Expected controller to be initialized")
		}
		if session.ConfigID != "classic" {
			t.Errorf("Expected config ID 'classic', got '%s'", session.ConfigID)
		}
		if !session.Controller.State().ShowStart {
			t.Error("Expected new session on the start screen")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %q", session.ID)
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", "classic", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "classic", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid session ID", func(t *testing.T) {
		_, err := manager.Create("bad id/with spaces", "classic", config)
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		invalidConfig := createTestConfig()
		invalidConfig.Name = ""
		_, err := manager.Create("invalid-test", "classic", invalidConfig)
		if err == nil {
			t.Error("Expected error for invalid config")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager, _ := newTestManager()
	created, _ := manager.Create("get-test", "classic", createTestConfig())

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session != created {
			t.Error("Expected the created session")
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session != created {
			t.Error("Expected same session regardless of case")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		_, err := manager.Get("non-existent")
		if err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("new-session", "classic", config)
	if err != nil {
		t.Fatalf("Failed to get or create session: %v", err)
	}

	second, err := manager.GetOrCreate("new-session", "classic", config)
	if err != nil {
		t.Fatalf("Failed to get existing session: %v", err)
	}
	if first != second {
		t.Error("Expected the existing session to be returned")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager, v := newTestManager()
	config := createTestConfig()

	t.Run("delete closes the controller", func(t *testing.T) {
		session, _ := manager.Create("delete-test", "classic", config)
		session.Controller.Start()

		if err := manager.Delete("delete-test"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if _, err := manager.Get("delete-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted")
		}
		if !session.Controller.Closed() {
			t.Error("Expected controller to be closed")
		}
		if v.Pending() != 0 {
			t.Errorf("Expected no pending timers, got %d", v.Pending())
		}
	})

	t.Run("delete non-existent session", func(t *testing.T) {
		if err := manager.Delete("non-existent"); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("case-insensitive delete", func(t *testing.T) {
		manager.Create("case-test", "classic", config)
		if err := manager.Delete("CASE-TEST"); err != nil {
			t.Fatalf("Failed to delete with different case: %v", err)
		}
		if _, err := manager.Get("case-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted regardless of case")
		}
	})
}

func TestManager_List(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	for i := 1; i <= 3; i++ {
		manager.Create(fmt.Sprintf("list-%d", i), "classic", config)
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}

	found := make(map[string]bool)
	for _, s := range sessions {
		found[s.ID] = true
	}
	for i := 1; i <= 3; i++ {
		if !found[fmt.Sprintf("list-%d", i)] {
			t.Errorf("Session list-%d not found in list", i)
		}
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager, v := newTestManager()
	config := createTestConfig()

	expired, _ := manager.Create("expired", "classic", config)
	v.Advance(90 * time.Minute)
	manager.Create("active", "classic", config)

	deleted := manager.CleanupExpiredSessions(time.Hour)
	if deleted != 1 {
		t.Errorf("Expected 1 session to be deleted, got %d", deleted)
	}

	if _, err := manager.Get("expired"); err != ErrSessionNotFound {
		t.Error("Expected expired session to be deleted")
	}
	if !expired.Controller.Closed() {
		t.Error("Expected expired controller to be closed")
	}
	if _, err := manager.Get("active"); err != nil {
		t.Error("Expected active session to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager, v := newTestManager()

	session, _ := manager.Create("access-test", "classic", createTestConfig())
	originalTime := session.LastAccessed()

	v.Advance(10 * time.Second)

	if err := manager.UpdateLastAccessed("access-test"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}

	updated, _ := manager.Get("access-test")
	if !updated.LastAccessed().Equal(originalTime.Add(10 * time.Second)) {
		t.Errorf("Expected LastAccessedAt to move 10s forward, got %v", updated.LastAccessed())
	}

	if err := manager.UpdateLastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_CloseAll(t *testing.T) {
	manager, v := newTestManager()
	config := createTestConfig()

	a, _ := manager.Create("a", "classic", config)
	b, _ := manager.Create("b", "classic", config)
	a.Controller.Start()
	b.Controller.Start()

	manager.CloseAll()

	if manager.Count() != 0 {
		t.Errorf("Expected no sessions, got %d", manager.Count())
	}
	if !a.Controller.Closed() || !b.Controller.Closed() {
		t.Error("Expected every controller closed")
	}
	if v.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", v.Pending())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("session-%d", id%20)
			if _, err := manager.GetOrCreate(sessionID, "classic", config); err != nil {
				errs <- err
			}
			manager.UpdateLastAccessed(sessionID)
			if session, err := manager.Get(sessionID); err == nil {
				_ = session.LastAccessed()
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			manager.CleanupExpiredSessions(time.Hour)
		}
	}()

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager, v := newTestManager()
	config := createTestConfig()

	session1, _ := manager.Create("iso-1", "classic", config)
	session2, _ := manager.Create("iso-2", "classic", config)

	session1.Controller.Start()
	v.Advance(3 * time.Second)

	if session2.Controller.State().Running {
		t.Error("Session 2 should not be affected by session 1 starting")
	}
	if session1.Controller.State().Elapsed != 3 {
		t.Errorf("Expected session 1 elapsed 3, got %d", session1.Controller.State().Elapsed)
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	generatedIDs := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := manager.Create("", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}
