package ipc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"menubard/internal/logging"
	"menubard/internal/model"
)

// Resolver is the worker-side service the server exposes over the socket.
type Resolver interface {
	Start() error
	Resolve(win model.WindowInfo) (int, bool)
}

// Server accepts daemon connections on a unix socket and answers
// resolution requests. Connections from other users are refused.
type Server struct {
	socketPath string
	resolver   Resolver
	log        *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	wg       sync.WaitGroup
}

// NewServer creates a server bound to socketPath once Listen is called.
func NewServer(socketPath string, resolver Resolver) *Server {
	return &Server{
		socketPath: socketPath,
		resolver:   resolver,
		log:        logging.ForComponent(logging.CompIPC),
	}
}

// Listen claims the socket path, removing any stale socket file left by a
// previous worker, and restricts it to the owning user.
func (s *Server) Listen() error {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	l, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		l.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.log.Info("worker listening", "socket", s.socketPath)
	return nil
}

// Serve accepts connections until Close. Call Listen first.
func (s *Server) Serve() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return errors.New("serve called before listen")
	}
	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if err := s.verifyPeer(conn); err != nil {
			s.log.Warn("rejecting connection", "error", err)
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Close stops accepting, waits for in-flight connections, and removes the
// socket file.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	l := s.listener
	s.listener = nil
	s.mu.Unlock()
	if l != nil {
		l.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

// verifyPeer checks that the connecting process runs as the same user.
func (s *Server) verifyPeer(conn net.Conn) error {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return errors.New("not a unix connection")
	}
	uid, err := peerUID(uc)
	if err != nil {
		return fmt.Errorf("read peer credentials: %w", err)
	}
	if uid != os.Getuid() {
		return fmt.Errorf("peer uid %d does not match %d", uid, os.Getuid())
	}
	return nil
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		var req Request
		if err := ReadMessage(conn, &req); err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("connection read failed", "error", err)
			}
			return
		}
		resp := s.handle(req)
		if err := WriteMessage(conn, resp); err != nil {
			s.log.Debug("connection write failed", "error", err)
			return
		}
	}
}

func (s *Server) handle(req Request) Response {
	switch req.Type {
	case RequestStart:
		if err := s.resolver.Start(); err != nil {
			return Response{Err: err.Error()}
		}
		return Response{OK: true}
	case RequestSourcePID:
		if req.Window == nil {
			return Response{Err: "source_pid request without a window"}
		}
		pid, ok := s.resolver.Resolve(*req.Window)
		if !ok {
			return Response{OK: true}
		}
		return Response{OK: true, PID: &pid}
	default:
		return Response{Err: fmt.Sprintf("unknown request type %q", req.Type)}
	}
}
