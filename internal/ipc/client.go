package ipc

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"menubard/internal/logging"
	"menubard/internal/model"
)

// Client is the daemon-side handle to the worker. It dials lazily and
// treats every transport or protocol failure as "owner unknown": the menu
// bar must keep working when the worker is absent or mid-restart.
type Client struct {
	socketPath string
	log        *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewClient creates a client for the worker socket. No connection is made
// until the first request.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		log:        logging.ForComponent(logging.CompIPC),
	}
}

// Start asks the worker to begin observing running applications.
func (c *Client) Start() error {
	resp, err := c.call(Request{Type: RequestStart})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("worker start: %s", resp.Err)
	}
	return nil
}

// SourcePID resolves a window's owning process. Any failure, from a missing
// socket to a refused request, yields (0, false); callers fall back to an
// unknown owner.
func (c *Client) SourcePID(win model.WindowInfo) (int, bool) {
	resp, err := c.call(Request{Type: RequestSourcePID, Window: &win})
	if err != nil {
		c.log.Debug("worker unavailable", "error", err)
		return 0, false
	}
	if !resp.OK || resp.PID == nil {
		return 0, false
	}
	return *resp.PID, true
}

// Close drops the connection if one is open.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// call performs one request/response exchange. The connection is held open
// across calls and discarded on any error so the next call redials.
func (c *Client) call(req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, err := net.Dial("unix", c.socketPath)
		if err != nil {
			return Response{}, fmt.Errorf("dial worker: %w", err)
		}
		c.conn = conn
	}

	if err := WriteMessage(c.conn, req); err != nil {
		c.drop()
		return Response{}, err
	}
	var resp Response
	if err := ReadMessage(c.conn, &resp); err != nil {
		c.drop()
		return Response{}, err
	}
	return resp, nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
