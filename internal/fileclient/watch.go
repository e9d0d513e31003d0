package fileclient

import (
	"context"
	"strings"

	"github.com/CageChen/folderchat/internal/protocol"
	"github.com/gorilla/websocket"
)

// Watch subscribes to change notifications and calls fn for each one until ctx
// is cancelled or the connection drops. It returns nil on cancellation.
func (c *Client) Watch(ctx context.Context, fn func(protocol.ChangeEvent)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var event protocol.ChangeEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if event.Type == "fileChange" {
			fn(event)
		}
	}
}

func (c *Client) wsURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/api/ws"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/api/ws"
	}
	return c.baseURL + "/api/ws"
}
