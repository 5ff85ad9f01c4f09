// Package ipc carries the minimal request/response protocol between the
// control daemon and the identity-resolution worker: length-delimited JSON
// over a local unix socket, with a peer-credential gate standing in for a
// signing-identity check.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"menubard/internal/model"
)

// Request types.
const (
	// RequestStart idempotently activates the worker: it begins
	// observing the running-application set.
	RequestStart = "start"

	// RequestSourcePID asks the worker to resolve a window's owner.
	RequestSourcePID = "source_pid"
)

// Request is one message from the daemon to the worker.
type Request struct {
	Type   string            `json:"type"`
	Window *model.WindowInfo `json:"window,omitempty"`
}

// Response is the worker's answer. A missing PID on an OK response means
// the owner could not be determined this time.
type Response struct {
	OK  bool   `json:"ok"`
	PID *int   `json:"pid,omitempty"`
	Err string `json:"err,omitempty"`
}

// maxMessageSize bounds a frame so a corrupt length prefix cannot force a
// huge allocation.
const maxMessageSize = 1 << 20

// WriteMessage writes v as a 4-byte big-endian length prefix plus JSON body.
func WriteMessage(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if len(body) > maxMessageSize {
		return fmt.Errorf("message too large: %d bytes", len(body))
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	return nil
}

// ReadMessage reads one length-delimited JSON message into v.
func ReadMessage(r io.Reader, v interface{}) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxMessageSize {
		return fmt.Errorf("message too large: %d bytes", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("read message body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
