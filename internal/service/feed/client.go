package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"Omnitrade/internal/domain/models"
)

// Client subscribes to the governance stream of a running server.
type Client struct {
	url          string
	pingInterval time.Duration

	conn *websocket.Conn
}

func New(url string, pingInterval time.Duration) *Client {
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	return &Client{url: url, pingInterval: pingInterval}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.conn = conn
	return nil
}

// Read streams decoded payload frames until ctx ends or the connection drops.
// Frames that are not payloads are reported on the error channel and skipped.
func (c *Client) Read(ctx context.Context) (<-chan *models.Payload, <-chan error) {
	frames := make(chan *models.Payload, 16)
	errs := make(chan error, 8)

	if c.conn == nil {
		errs <- fmt.Errorf("feed not connected")
		close(frames)
		close(errs)
		return frames, errs
	}

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			}
		}
	}()

	// unblock ReadMessage on cancellation
	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()

	go func() {
		defer close(frames)
		defer close(errs)
		for {
			_, b, err := c.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("feed read: %w", err)
				}
				return
			}
			var p models.Payload
			if err := json.Unmarshal(b, &p); err != nil {
				select {
				case errs <- fmt.Errorf("feed decode: %w", err):
				default:
				}
				continue
			}
			select {
			case frames <- &p:
			case <-ctx.Done():
				return
			}
		}
	}()

	return frames, errs
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
