//go:build !linux && !darwin

package ipc

import (
	"net"
	"os"
)

// Without SO_PEERCRED or LOCAL_PEERCRED the socket's 0600 mode is the only
// gate; accept the peer as ourselves.
func peerUID(conn *net.UnixConn) (int, error) {
	return os.Getuid(), nil
}
