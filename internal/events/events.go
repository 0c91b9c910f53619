// Package events publishes pipeline lifecycle events over NATS so
// downstream tools (renderers, indexers) can react to freshly built IR
// without polling the output directory.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the pipeline.
const (
	SubjectSessionBuilt   = "chatweave.session.built"
	SubjectBatchCompleted = "chatweave.batch.completed"
)

// SessionBuilt announces one aligned session.
type SessionBuilt struct {
	RunID        string   `json:"run_id"`
	SessionID    string   `json:"session_id"`
	Platforms    []string `json:"platforms"`
	PromptGroups int      `json:"prompt_groups"`
	OutputPath   string   `json:"output_path"`
	Timestamp    string   `json:"timestamp"`
}

// BatchCompleted announces the end of a batch run.
type BatchCompleted struct {
	RunID     string `json:"run_id"`
	Sessions  int    `json:"sessions"`
	Errors    int    `json:"errors"`
	Timestamp string `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient connects to NATS with reconnect handling. token may be empty.
func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// Subscribe registers a handler for a subject pattern. Consumers of
// pipeline events use this to react to sessions as they finish.
func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	_, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// Timestamp formats event timestamps consistently.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
