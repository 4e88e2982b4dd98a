// Command memorygame runs the memory match game.
//
// Subcommands:
//  1. "server" (default) – HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – MCP stdio server; spins up an internal HTTP API if none is reachable
//  3. "play" – plays one game in the terminal
//  4. "validate" – checks every config file in a directory
//
// Flags control host/port, config directory, score storage, NATS publishing,
// debug logging, and optional ngrok tunneling for easy external access.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/memory-match-game/game/config"
	"github.com/wricardo/memory-match-game/game/scores"
	"github.com/wricardo/memory-match-game/game/service"
	"github.com/wricardo/memory-match-game/game/session"
	"github.com/wricardo/memory-match-game/transport/natsbus"
	"github.com/wricardo/memory-match-game/transport/websocket"
	"github.com/wricardo/memory-match-game/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Match Game Server"
)

// Session retention
const (
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
)

// options holds the resolved global flags.
type options struct {
	host        string
	port        int
	configDir   string
	scoresDir   string
	scoresDB    string
	natsURL     string
	debug       bool
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:        cmd.String("host"),
		port:        int(cmd.Int("port")),
		configDir:   cmd.String("config-dir"),
		scoresDir:   cmd.String("scores-dir"),
		scoresDB:    cmd.String("scores-db"),
		natsURL:     cmd.String("nats-url"),
		debug:       cmd.Bool("debug"),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	}
}

// newCommand builds the command tree.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "memorygame",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "scores-dir",
				Value:   "scores",
				Usage:   "Directory for finished game records when no database is set",
				Sources: cli.EnvVars("SCORES_DIR"),
			},
			&cli.StringFlag{
				Name:    "scores-db",
				Usage:   "Score database: a SQLite file path or a postgres:// URL",
				Sources: cli.EnvVars("SCORES_DB"),
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "Publish game events to this NATS server",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serverAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(ctx, optionsFrom(cmd))
				},
			},
			{
				Name:  "play",
				Usage: "Play one game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Value: config.DefaultConfigName,
						Usage: "Config to play",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runPlay(ctx, optionsFrom(cmd), cmd.String("config"), os.Stdin, os.Stdout)
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate every config file in a directory",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					dir := cmd.Args().First()
					if dir == "" {
						dir = cmd.String("config-dir")
					}
					return runValidate(dir)
				},
			},
		},
	}
}

// main loads .env and runs the command tree until interrupted.
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log.Printf("Starting %s v%s", AppName, Version)

	svcs, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	go sessionCleanupRoutine(ctx, svcs.sessions)

	return runHTTPServer(ctx, opts, svcs)
}

func runValidate(dir string) error {
	results, err := validate.Dir(dir)
	if err != nil {
		return err
	}
	if !validate.Report(os.Stdout, results) {
		return cli.Exit("", 1)
	}
	return nil
}

// services is everything a server process wires together.
type services struct {
	game      service.GameService
	sessions  *session.Manager
	configs   *config.Manager
	hub       *websocket.Hub
	scores    scores.Store
	publisher *natsbus.Publisher
}

// initializeServices wires the session, config and score stores, the
// WebSocket hub and the optional NATS publisher into the game service.
func initializeServices(opts options) (*services, error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	store, err := scores.Open(opts.scoresDB, opts.scoresDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open score store: %w", err)
	}

	s := &services{
		sessions: session.NewManager(nil),
		configs:  configManager,
		hub:      websocket.NewHub(),
		scores:   store,
	}

	serviceOpts := []service.Option{
		service.WithScoreStore(store),
		service.WithNotifier(s.hub),
	}

	if opts.natsURL != "" {
		publisher, err := natsbus.Connect(opts.natsURL, AppName)
		if err != nil {
			log.Printf("Warning: NATS disabled: %v", err)
		} else {
			s.publisher = publisher
			serviceOpts = append(serviceOpts, service.WithNotifier(publisher))
			log.Printf("Publishing game events to %s", opts.natsURL)
		}
	}

	s.game = service.NewGameService(s.sessions, configManager, serviceOpts...)
	s.hub.SetHandler(s.game)
	go s.hub.Run()

	return s, nil
}

// Close stops every session and releases the stores.
func (s *services) Close() {
	s.sessions.CloseAll()
	s.hub.Close()
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Printf("NATS drain error: %v", err)
		}
	}
	if err := s.scores.Close(); err != nil {
		log.Printf("Score store close error: %v", err)
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(sessionMaxAge)
		}
	}
}
