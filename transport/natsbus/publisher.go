package natsbus

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/scores"
)

const (
	// SubjectPrefix is the root of every subject published by this package.
	SubjectPrefix = "memorygame"
	// ScoresSubject receives one message per finished game.
	ScoresSubject = SubjectPrefix + ".scores"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// StateMessage is published after every change of a session.
type StateMessage struct {
	SessionID   string       `json:"session_id"`
	State       engine.State `json:"state"`
	PublishedAt time.Time    `json:"published_at"`
}

// Publisher forwards session states and scores to NATS. It satisfies the
// game service's Notifier and ScoreNotifier interfaces.
type Publisher struct {
	conn Conn
	now  func() time.Time
}

// Connect dials url and returns a publisher on the new connection.
func Connect(url, name string) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return NewPublisher(nc), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn) *Publisher {
	return &Publisher{conn: conn, now: time.Now}
}

// StateSubject returns the subject a session's states are published on.
func StateSubject(sessionID string) string {
	return SubjectPrefix + ".sessions." + subjectToken(sessionID) + ".state"
}

// subjectToken makes id safe to use as a single subject token.
func subjectToken(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, strings.ToLower(id))
}

// NotifyState publishes a session snapshot.
func (p *Publisher) NotifyState(sessionID string, state engine.State) {
	p.publish(StateSubject(sessionID), StateMessage{
		SessionID:   sessionID,
		State:       state,
		PublishedAt: p.now().UTC(),
	})
}

// NotifyScore publishes a finished game.
func (p *Publisher) NotifyScore(rec *scores.Record) {
	if rec == nil {
		return
	}
	p.publish(ScoresSubject, rec)
}

func (p *Publisher) publish(subject string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("NATS marshal %s: %v", subject, err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("NATS publish %s: %v", subject, err)
	}
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
