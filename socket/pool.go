package socket

import (
	"syscall"

	"github.com/cockroachdb/errors"
)

// Pool monitors a fixed set of sockets with select. Slot 0 is
// conventionally the listener. Removal swaps with the last live slot, so
// slot order is insertion order only for sockets never removed — which
// holds for the listener, the one slot whose position matters.
type Pool struct {
	sockets []*Socket
	used    int
	mask    uint32
}

// NewPool builds a pool of at most capacity sockets (32 max, the mask is
// one machine word).
func NewPool(capacity int) *Pool {
	if capacity > 32 {
		capacity = 32
	}
	return &Pool{sockets: make([]*Socket, capacity)}
}

// Append registers a socket at the end of the pool.
func (p *Pool) Append(s *Socket) bool {
	if p.used == len(p.sockets) {
		return false
	}
	p.sockets[p.used] = s
	p.used++
	return true
}

// Remove unregisters a socket, swapping the last slot into its place.
// The readable bit follows the swapped socket.
func (p *Pool) Remove(s *Socket) bool {
	for i := 0; i < p.used; i++ {
		if p.sockets[i] != s {
			continue
		}
		u := p.used - 1
		p.sockets[i] = p.sockets[u]
		bitI, bitU := uint32(1)<<uint(i), uint32(1)<<uint(u)
		if p.mask&bitU != 0 {
			p.mask |= bitI
		} else {
			p.mask &^= bitI
		}
		p.mask &^= bitU
		p.sockets[u] = nil
		p.used--
		return true
	}
	return false
}

func fdSet(fd int, set *syscall.FdSet) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(fd int, set *syscall.FdSet) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}

// SelectActive waits up to timeoutMs (forever when negative) for any
// registered socket to become readable, rebuilding the readable mask.
// It reports whether at least one socket is readable.
func (p *Pool) SelectActive(timeoutMs int) (bool, error) {
	p.mask = 0

	var set syscall.FdSet
	maxFd := 0
	for i := 0; i < p.used; i++ {
		if p.sockets[i] == nil || !p.sockets[i].IsValid() {
			return false, errors.New("pool: dead socket in live set")
		}
		fd := p.sockets[i].Fd()
		fdSet(fd, &set)
		if fd > maxFd {
			maxFd = fd
		}
	}

	var tvp *syscall.Timeval
	if timeoutMs >= 0 {
		tv := syscall.NsecToTimeval(int64(timeoutMs) * 1e6)
		tvp = &tv
	}
	n, err := syscall.Select(maxFd+1, &set, nil, nil, tvp)
	if err == syscall.EINTR {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "select")
	}
	if n == 0 {
		return false, nil
	}
	for i := 0; i < p.used; i++ {
		if fdIsSet(p.sockets[i].Fd(), &set) {
			p.mask |= uint32(1) << uint(i)
		}
	}
	return true, nil
}

// GetReadableSocket returns the next readable socket at or after
// startPos and clears its bit, so every readable socket is handed out at
// most once per select, in ascending slot order.
func (p *Pool) GetReadableSocket(startPos int) *Socket {
	if p.mask == 0 {
		return nil
	}
	for i := startPos; i < p.used; i++ {
		bit := uint32(1) << uint(i)
		if p.mask&bit != 0 {
			p.mask &^= bit
			return p.sockets[i]
		}
	}
	return nil
}

// IsReadable checks one slot without consuming its bit.
func (p *Pool) IsReadable(pos int) bool { return p.mask&(uint32(1)<<uint(pos)) != 0 }

// Used is the number of registered sockets.
func (p *Pool) Used() int { return p.used }
