package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/scores"
	"github.com/wricardo/memory-match-game/game/service"
)

// boardColumns is the width of the rendered card grid.
const boardColumns = 5

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find all ten pairs among twenty face-down cards in as few moves as possible.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Get current board
- start_game: Deal a new deck and start the clock
- flip_card: Flip one card by index (0-19)
- reset_game: Deal a new deck and return to the start screen
- list_configs: List available configurations
- leaderboard: Best finished games
- game_instructions: Rules and tips

NOTE: After start_game the cards are shown briefly and then hidden. Flips are
rejected with reason "shuffling" until that animation ends.`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, moves and elapsed time",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Deal a new deck, briefly reveal it and start the clock",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_card",
		Description: "Flip a face-down card. The second flip of a pair counts as one move.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"maximum":     engine.DeckSize - 1,
					"description": "Card index, row by row from the top left",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleFlip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Deal a new deck and return to the start screen",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	// Configuration and scores
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Best finished games, fewest moves first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Only games played with this config (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries (default 10)",
				},
			},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the game rules and tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := request.GetString("config_id", "")

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\nCall start_game to deal the cards.", session.ID, session.ConfigName)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions: %d\n", response.Count)
	for _, session := range response.Sessions {
		status := "not started"
		if st := session.GameState; st != nil {
			switch {
			case st.Completed:
				status = fmt.Sprintf("completed in %d moves", st.Steps)
			case st.Running:
				status = fmt.Sprintf("playing, %d/%d pairs", engine.CountMatched(st.Cards)/2, engine.DeckPairs)
			}
		}
		fmt.Fprintf(&b, "- %s (config: %s, %s)\n", session.ID, session.ConfigName, status)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.State
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateAction(ctx, request, "/start", "Game started. The cards are being shown; wait about a second before flipping.")
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateAction(ctx, request, "/reset", "Game reset. Call start_game to play.")
}

func (c *Client) stateAction(ctx context.Context, request mcp.CallToolRequest, suffix, message string) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		State *engine.State `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(message + "\n\n" + formatGameState(response.State)), nil
}

func (c *Client) handleFlip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.FlipResult
	body := map[string]int{"index": index}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/flip"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFlipResult(index, &result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available configurations:\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s", cfg.ConfigID, cfg.Name)
		if cfg.Description != "" {
			fmt.Fprintf(&b, " (%s)", cfg.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := url.Values{}
	if configID := request.GetString("config_id", ""); configID != "" {
		params.Set("config", configID)
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/scores"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response struct {
		Scores []*scores.Record `json:"scores"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(response.Scores)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Memory Match Game - Instructions

GAME OBJECTIVE:
Twenty cards lie face-down in a 5x4 grid. Every symbol appears on exactly two
cards. Find all ten pairs.

HOW A GAME RUNS:
1. create_session, then start_game.
2. The cards are revealed one by one from the middle outwards, shown for a
   moment, then hidden again. Flips during this animation are rejected with
   reason "shuffling".
3. flip_card two cards. The second flip counts as one move.
   - Same symbol: both cards stay face-up as matched.
   - Different symbols: both turn face-down again after about a second.
   While a pair is resolving, further flips are rejected with "pair_pending".
4. The game ends when every card is matched. The clock stops and the result is
   added to the leaderboard.

BOARD LEGEND:
  [ ? ]  face-down card
  [ A ]  face-up card
  ( A )  matched card

REJECTION REASONS:
- not_started: call start_game first
- shuffling: the reveal animation is still running
- pair_pending: wait for the current pair to resolve
- face_up / matched: pick a face-down card

TIPS:
- Remember every symbol you have seen together with its index.
- When you know where both cards of a symbol are, flip them back to back.
- Flip an unknown card first; if its partner is already known, take it.

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatters

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.State) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Moves: %d | Time: %ds | Pairs: %d/%d\n\n",
		state.Steps, state.Elapsed, engine.CountMatched(state.Cards)/2, engine.DeckPairs)

	b.WriteString(formatBoard(state.Cards))

	switch {
	case state.Completed:
		b.WriteString("\n🎉 ALL PAIRS FOUND!")
	case state.ShowStart:
		b.WriteString("\nNot started. Call start_game.")
	case state.Shuffling:
		b.WriteString("\nCards are being shown, wait before flipping.")
	case len(state.Selection) > 0:
		fmt.Fprintf(&b, "\nFace-up selection: %v", state.Selection)
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

// formatBoard renders cards as a grid with the index of each card above it.
func formatBoard(cards []engine.Card) string {
	var b strings.Builder
	for row := 0; row < len(cards); row += boardColumns {
		end := row + boardColumns
		if end > len(cards) {
			end = len(cards)
		}

		for i := row; i < end; i++ {
			fmt.Fprintf(&b, " %3d   ", i)
		}
		b.WriteString("\n")

		for _, card := range cards[row:end] {
			value := card.Value
			if !card.Flipped && !card.Matched {
				value = engine.HiddenCardSymbol
			}
			if card.Matched {
				fmt.Fprintf(&b, "( %-3s) ", value)
			} else {
				fmt.Fprintf(&b, "[ %-3s] ", value)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatFlipResult(index int, result *service.FlipResult) string {
	var b strings.Builder
	switch {
	case !result.Accepted:
		fmt.Fprintf(&b, "✗ Flip of card %d rejected (%s)", index, result.Reason)
		if result.Message != "" {
			fmt.Fprintf(&b, ": %s", result.Message)
		}
	case result.PairComplete && result.Match:
		fmt.Fprintf(&b, "✓ Card %d completes a match!", index)
	case result.PairComplete:
		fmt.Fprintf(&b, "✗ Card %d does not match. Both cards will turn back over.", index)
	default:
		fmt.Fprintf(&b, "Card %d flipped. Pick a second card.", index)
	}

	if st := result.GameState; st != nil && index >= 0 && index < len(st.Cards) && st.Cards[index].Flipped {
		fmt.Fprintf(&b, "\nCard %d shows: %s", index, st.Cards[index].Value)
	}

	b.WriteString("\n\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatLeaderboard(records []*scores.Record) string {
	if len(records) == 0 {
		return "No finished games yet."
	}

	var b strings.Builder
	b.WriteString("Leaderboard:\n")
	for i, rec := range records {
		fmt.Fprintf(&b, "%2d. %d moves, %ds (session %s, config %s, %s)\n",
			i+1, rec.Steps, rec.ElapsedSeconds, rec.SessionID, rec.ConfigID,
			rec.FinishedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}
