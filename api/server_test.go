package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/scores"
	"github.com/wricardo/memory-match-game/game/service"
	"github.com/wricardo/memory-match-game/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	StartFunc func(ctx context.Context, sessionID string) (*engine.State, error)
	ResetFunc func(ctx context.Context, sessionID string) (*engine.State, error)
	FlipFunc  func(ctx context.Context, sessionID string, index int) (*service.FlipResult, error)

	// Game State
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.State, error)
	SubscribeFunc    func(ctx context.Context, sessionID string) (<-chan engine.State, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error

	// Scores
	LeaderboardFunc func(ctx context.Context, configID string, limit int) ([]*scores.Record, error)
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "ab12",
		ConfigName: configName,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "classic",
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game Operations
func (m *MockGameService) Start(ctx context.Context, sessionID string) (*engine.State, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, sessionID)
	}
	return &engine.State{Running: true, Shuffling: true}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.State, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.State{ShowStart: true}, nil
}

func (m *MockGameService) Flip(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
	if m.FlipFunc != nil {
		return m.FlipFunc(ctx, sessionID, index)
	}
	return &service.FlipResult{Accepted: true, GameState: &engine.State{}}, nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.State, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.State{}, nil
}

func (m *MockGameService) Subscribe(ctx context.Context, sessionID string) (<-chan engine.State, error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, sessionID)
	}
	ch := make(chan engine.State)
	close(ch)
	return ch, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	config := engine.DefaultConfig()
	config.Name = configName
	return config, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Scores
func (m *MockGameService) Leaderboard(ctx context.Context, configID string, limit int) ([]*scores.Record, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, configID, limit)
	}
	return []*scores.Record{}, nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func notFound(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "classic"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with specific config",
			requestBody: map[string]string{"config_id": "relaxed"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "relaxed" {
					t.Errorf("Expected config name 'relaxed', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Malformed body",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
				{ID: "mid", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
				{ID: "new", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
	}{
		{"default sorts by last access, newest first", "", []string{"old", "new", "mid"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"limit", "?sort=created&limit=1", []string{"new"}, 3},
		{"invalid limit ignored", "?limit=abc", []string{"old", "new", "mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.wantTotal || resp.Count != len(tt.wantIDs) {
				t.Errorf("count/total = %d/%d, want %d/%d", resp.Count, resp.Total, len(tt.wantIDs), tt.wantTotal)
			}
			for i, id := range tt.wantIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Errorf("sessions[%d] mismatch, want %s", i, id)
				}
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		server := setupTestServer(&MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp service.SessionInfo
		parseResponse(t, w, &resp)
		if resp.ID != "ab12" {
			t.Errorf("Expected session ab12, got %s", resp.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		server := setupTestServer(&MockGameService{GetSessionFunc: notFound})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/zzzz", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return service.ErrSessionNotFound
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "ab12" {
		t.Errorf("Expected ab12 deleted, got %q", deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestStartAndReset(t *testing.T) {
	tests := []struct {
		path      string
		checkResp func(*testing.T, *engine.State)
	}{
		{"/api/sessions/ab12/start", func(t *testing.T, s *engine.State) {
			if !s.Running || !s.Shuffling {
				t.Errorf("Expected running and shuffling state, got %+v", s)
			}
		}},
		{"/api/sessions/ab12/reset", func(t *testing.T, s *engine.State) {
			if !s.ShowStart {
				t.Errorf("Expected start screen, got %+v", s)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			server := setupTestServer(&MockGameService{})
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", tt.path, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				Message string        `json:"message"`
				State   *engine.State `json:"state"`
			}
			parseResponse(t, w, &resp)
			if resp.State == nil {
				t.Fatal("Expected state in response")
			}
			tt.checkResp(t, resp.State)
		})
	}

	t.Run("unknown session", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			StartFunc: func(ctx context.Context, sessionID string) (*engine.State, error) {
				return nil, service.ErrSessionNotFound
			},
		})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/sessions/zzzz/start", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		server := setupTestServer(&MockGameService{})
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/start", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Code)
		}
	})
}

func TestRouting_MethodAndPath(t *testing.T) {
	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{"GET", "/api/sessions/ab12/start", http.StatusMethodNotAllowed},
		{"GET", "/api/sessions/ab12/reset", http.StatusMethodNotAllowed},
		{"GET", "/api/sessions/ab12/flip", http.StatusMethodNotAllowed},
		{"PUT", "/api/sessions/ab12", http.StatusMethodNotAllowed},
		{"DELETE", "/api/configs", http.StatusMethodNotAllowed},
		{"POST", "/api/health", http.StatusMethodNotAllowed},
		{"GET", "/api/nowhere", http.StatusNotFound},
		{"GET", "/api/sessions/ab12/unknown", http.StatusNotFound},
	}

	server := setupTestServer(&MockGameService{})
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest(tt.method, tt.path, nil))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusMethodNotAllowed {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "method not allowed" {
					t.Errorf("Expected JSON error body, got %v", resp)
				}
			}
		})
	}
}

func TestFlip(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Accepted flip",
			requestBody: map[string]int{"index": 4},
			setupMock: func(m *MockGameService) {
				m.FlipFunc = func(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
					if index != 4 {
						t.Errorf("Expected index 4, got %d", index)
					}
					return &service.FlipResult{Accepted: true, PairComplete: true, Match: true}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.FlipResult
				parseResponse(t, w, &resp)
				if !resp.Accepted || !resp.Match {
					t.Errorf("Expected accepted match, got %+v", resp)
				}
			},
		},
		{
			name:        "Index zero is sent",
			requestBody: map[string]int{"index": 0},
			setupMock: func(m *MockGameService) {
				m.FlipFunc = func(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
					if index != 0 {
						t.Errorf("Expected index 0, got %d", index)
					}
					return &service.FlipResult{Accepted: true}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Rejected flip is not an HTTP error",
			requestBody: map[string]int{"index": 2},
			setupMock: func(m *MockGameService) {
				m.FlipFunc = func(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
					return &service.FlipResult{Accepted: false, Reason: engine.ReasonPairPending}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.FlipResult
				parseResponse(t, w, &resp)
				if resp.Accepted || resp.Reason != engine.ReasonPairPending {
					t.Errorf("Expected pair_pending rejection, got %+v", resp)
				}
			},
		},
		{
			name:        "Out of range",
			requestBody: map[string]int{"index": 99},
			setupMock: func(m *MockGameService) {
				m.FlipFunc = func(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
					return nil, fmt.Errorf("%w: %d", service.ErrInvalidCardIndex, index)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing index",
			requestBody:    map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid body",
			requestBody:    "flip",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/flip", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.State, error) {
			if sessionID != "ab12" {
				return nil, service.ErrSessionNotFound
			}
			return &engine.State{Steps: 5, Elapsed: 12, Revision: 40}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var state engine.State
	parseResponse(t, w, &state)
	if state.Steps != 5 || state.Elapsed != 12 || state.Revision != 40 {
		t.Errorf("Unexpected state: %+v", state)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/other/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEvents(t *testing.T) {
	events := make(chan engine.State, 2)
	events <- engine.State{Revision: 2}
	events <- engine.State{Revision: 3}
	close(events)

	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.State, error) {
			return &engine.State{Revision: 1}, nil
		},
		SubscribeFunc: func(ctx context.Context, sessionID string) (<-chan engine.State, error) {
			return events, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/events", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %s", ct)
	}

	var revisions []uint64
	for _, chunk := range strings.Split(w.Body.String(), "\n\n") {
		if !strings.HasPrefix(chunk, "data: ") {
			continue
		}
		var state engine.State
		if err := json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &state); err != nil {
			t.Fatalf("Invalid event %q: %v", chunk, err)
		}
		revisions = append(revisions, state.Revision)
	}

	want := []uint64{1, 2, 3}
	if fmt.Sprint(revisions) != fmt.Sprint(want) {
		t.Errorf("Expected revisions %v, got %v", want, revisions)
	}
}

func TestEvents_SubscribesBeforeSnapshot(t *testing.T) {
	var calls []string
	record := func(call string) {
		calls = append(calls, call)
	}

	events := make(chan engine.State, 3)
	mockService := &MockGameService{
		SubscribeFunc: func(ctx context.Context, sessionID string) (<-chan engine.State, error) {
			record("subscribe")
			// A flip lands right after subscribing, before the snapshot is read
			events <- engine.State{Revision: 2}
			return events, nil
		},
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.State, error) {
			record("state")
			events <- engine.State{Revision: 3}
			close(events)
			return &engine.State{Revision: 2}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/events", nil))

	if fmt.Sprint(calls) != "[subscribe state]" {
		t.Errorf("Expected subscribe before state, got %v", calls)
	}

	var revisions []uint64
	for _, chunk := range strings.Split(w.Body.String(), "\n\n") {
		if !strings.HasPrefix(chunk, "data: ") {
			continue
		}
		var state engine.State
		if err := json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &state); err != nil {
			t.Fatalf("Invalid event %q: %v", chunk, err)
		}
		revisions = append(revisions, state.Revision)
	}
	if fmt.Sprint(revisions) != "[2 3]" {
		t.Errorf("Expected revisions [2 3] without duplicates, got %v", revisions)
	}
}

func TestEventsUnknownSession(t *testing.T) {
	server := setupTestServer(&MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.State, error) {
			return nil, service.ErrSessionNotFound
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/zzzz/events", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestQRCode(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil, WithPublicURL("https://example.com/"))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/qr?size=128", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Expected image/png, got %s", ct)
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
			t.Error("Response is not a PNG")
		}
	})

	t.Run("play url", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil, WithPublicURL("https://example.com/"))
		req := makeRequest("GET", "/api/sessions/ab12/qr", nil)
		if got := server.playURL(req, "ab12"); got != "https://example.com/api/sessions/ab12" {
			t.Errorf("Unexpected play URL %s", got)
		}

		server = NewServer(&MockGameService{}, nil)
		req.Host = "localhost:8080"
		if got := server.playURL(req, "ab12"); got != "http://localhost:8080/api/sessions/ab12" {
			t.Errorf("Unexpected play URL %s", got)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		server := NewServer(&MockGameService{GetSessionFunc: notFound}, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/sessions/zzzz/qr", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	server := setupTestServer(&MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{Filename: "classic.json", ConfigID: "classic", Name: "Classic"},
				{Filename: "relaxed.json", ConfigID: "relaxed", Name: "Relaxed"},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 || configs[1].ConfigID != "relaxed" {
		t.Errorf("Unexpected configs: %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	var requested string
	server := setupTestServer(&MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			requested = configName
			if configName == "missing" {
				return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
			}
			return engine.DefaultConfig(), nil
		},
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/classic.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if requested != "classic" {
		t.Errorf("Expected .json suffix to be trimmed, got %s", requested)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	valid := engine.DefaultConfig()
	valid.Name = "Fruit"

	tests := []struct {
		name           string
		body           interface{}
		wantStatus     int
		wantSavedAs    string
		saveShouldFail bool
	}{
		{"saved under name", valid, http.StatusCreated, "Fruit", false},
		{"explicit config_id", map[string]interface{}{
			"config_id":   "fruit",
			"name":        "Fruit",
			"description": valid.Description,
			"symbols":     valid.Symbols,
			"timing":      valid.Timing,
			"messages":    valid.Messages,
		}, http.StatusCreated, "fruit", false},
		{"missing name", map[string]interface{}{"symbols": valid.Symbols}, http.StatusBadRequest, "", false},
		{"invalid config", map[string]interface{}{"name": "short", "symbols": []string{"A"}}, http.StatusBadRequest, "", false},
		{"save failure", valid, http.StatusBadRequest, "Fruit", true},
		{"invalid body", "nope", http.StatusBadRequest, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved string
			server := setupTestServer(&MockGameService{
				SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
					saved = configName
					if tt.saveShouldFail {
						return fmt.Errorf("invalid name")
					}
					return nil
				},
			})

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/configs", tt.body))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if saved != tt.wantSavedAs {
				t.Errorf("Expected save as %q, got %q", tt.wantSavedAs, saved)
			}
		})
	}
}

// Score Tests

func TestScores(t *testing.T) {
	t.Run("leaderboard", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			LeaderboardFunc: func(ctx context.Context, configID string, limit int) ([]*scores.Record, error) {
				if configID != "classic" || limit != 5 {
					t.Errorf("Unexpected query config=%s limit=%d", configID, limit)
				}
				return []*scores.Record{{ID: "r1", Steps: 10, ElapsedSeconds: 30}}, nil
			},
		})

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/scores?config=classic&limit=5", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var resp struct {
			Count  int              `json:"count"`
			Scores []*scores.Record `json:"scores"`
		}
		parseResponse(t, w, &resp)
		if resp.Count != 1 || resp.Scores[0].Steps != 10 {
			t.Errorf("Unexpected response: %+v", resp)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		server := setupTestServer(&MockGameService{
			LeaderboardFunc: func(ctx context.Context, configID string, limit int) ([]*scores.Record, error) {
				return nil, service.ErrScoresDisabled
			},
		})

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/scores", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	server := setupTestServer(&MockGameService{})
	w := httptest.NewRecorder()
	server.Handler(true).ServeHTTP(w, makeRequest("GET", "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", resp)
	}
}

func TestHandlerRecoversPanics(t *testing.T) {
	server := setupTestServer(&MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			panic("boom")
		},
	})

	w := httptest.NewRecorder()
	server.Handler(false).ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = notFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Valid session",
			queryParams:    "?session=ab12",
			expectedStatus: http.StatusSwitchingProtocols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			if tt.expectedStatus == http.StatusSwitchingProtocols {
				req.Header.Set("Upgrade", "websocket")
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
				req.Header.Set("Sec-WebSocket-Version", "13")
			}

			server.ServeHTTP(w, req)

			// httptest.ResponseRecorder is not an http.Hijacker, so a
			// valid upgrade attempt ends in a 500 from the upgrader.
			if tt.expectedStatus == http.StatusSwitchingProtocols && w.Code == http.StatusInternalServerError {
				return
			}

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
