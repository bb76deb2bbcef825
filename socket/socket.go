// Package socket wraps plain IPv4 BSD sockets and a select-based pool.
// The server only ever touches sockets through this package so the TLS
// build can swap the transport without touching the protocol core.
package socket

import (
	"fmt"
	"syscall"

	"github.com/cockroachdb/errors"
)

// Socket is a plain TCP socket identified by its file descriptor. The
// zero value is not usable; use New.
type Socket struct {
	fd   int
	Addr string
}

// New returns an unconnected socket.
func New() Socket { return Socket{fd: -1} }

// IsValid reports whether the socket holds a live descriptor. A client
// slot is in use exactly while its socket is valid.
func (s *Socket) IsValid() bool { return s.fd != -1 }

// Fd exposes the descriptor for select.
func (s *Socket) Fd() int { return s.fd }

// Listen binds the socket to port on all interfaces and starts
// listening.
func (s *Socket) Listen(port, backlog int) error {
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_STREAM, 0)
	if err != nil {
		return errors.Wrap(err, "socket")
	}
	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		syscall.Close(fd)
		return errors.Wrap(err, "setsockopt")
	}
	if err := syscall.Bind(fd, &syscall.SockaddrInet4{Port: port}); err != nil {
		syscall.Close(fd)
		return errors.Wrapf(err, "bind port %d", port)
	}
	if err := syscall.Listen(fd, backlog); err != nil {
		syscall.Close(fd)
		return errors.Wrap(err, "listen")
	}
	s.fd = fd
	s.Addr = fmt.Sprintf("0.0.0.0:%d", port)
	return nil
}

// Accept takes the next pending connection into client.
func (s *Socket) Accept(client *Socket) error {
	nfd, sa, err := syscall.Accept(s.fd)
	if err != nil {
		return errors.Wrap(err, "accept")
	}
	client.fd = nfd
	if inet, ok := sa.(*syscall.SockaddrInet4); ok {
		client.Addr = fmt.Sprintf("%d.%d.%d.%d:%d",
			inet.Addr[0], inet.Addr[1], inet.Addr[2], inet.Addr[3], inet.Port)
	}
	return nil
}

// Recv reads whatever is available into buf.
func (s *Socket) Recv(buf []byte) (int, error) {
	n, err := syscall.Read(s.fd, buf)
	if err != nil {
		return 0, errors.Wrap(err, "recv")
	}
	if n == 0 {
		return 0, errors.New("recv: peer closed")
	}
	return n, nil
}

// Send writes the whole buffer, looping over short writes.
func (s *Socket) Send(buf []byte) (int, error) {
	sent := 0
	for sent < len(buf) {
		n, err := syscall.Write(s.fd, buf[sent:])
		if err != nil {
			return sent, errors.Wrap(err, "send")
		}
		sent += n
	}
	return sent, nil
}

// Reset closes the descriptor and invalidates the socket.
func (s *Socket) Reset() {
	if s.fd != -1 {
		syscall.Close(s.fd)
	}
	s.fd = -1
	s.Addr = ""
}

// Adopt takes ownership of an existing descriptor (tests, socketpairs).
func (s *Socket) Adopt(fd int) { s.fd = fd }
