package socket

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

// pipePair returns a socketpair wrapped as two Sockets; writing to the
// second makes the first readable.
func pipePair(t *testing.T) (*Socket, *Socket) {
	t.Helper()
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	require.NoError(t, err)
	a, b := New(), New()
	a.Adopt(fds[0])
	b.Adopt(fds[1])
	t.Cleanup(func() { a.Reset(); b.Reset() })
	return &a, &b
}

func TestPoolAppendRemove(t *testing.T) {
	p := NewPool(4)
	a, _ := pipePair(t)
	b, _ := pipePair(t)
	c, _ := pipePair(t)

	require.True(t, p.Append(a))
	require.True(t, p.Append(b))
	require.True(t, p.Append(c))
	require.Equal(t, 3, p.Used())

	require.True(t, p.Remove(b))
	require.Equal(t, 2, p.Used())
	require.False(t, p.Remove(b))

	d, _ := pipePair(t)
	e, _ := pipePair(t)
	require.True(t, p.Append(d))
	require.True(t, p.Append(e))
	require.Equal(t, 4, p.Used())
	require.False(t, p.Append(e), "capacity is fixed")
	_ = e
}

func TestSelectTimeout(t *testing.T) {
	p := NewPool(4)
	a, _ := pipePair(t)
	require.True(t, p.Append(a))

	active, err := p.SelectActive(10)
	require.NoError(t, err)
	require.False(t, active)
}

func TestSelectReportsReadableInInsertionOrder(t *testing.T) {
	p := NewPool(4)
	a, aw := pipePair(t)
	b, bw := pipePair(t)
	c, cw := pipePair(t)
	require.True(t, p.Append(a))
	require.True(t, p.Append(b))
	require.True(t, p.Append(c))

	_, err := cw.Send([]byte("x"))
	require.NoError(t, err)
	_, err = aw.Send([]byte("x"))
	require.NoError(t, err)
	_, err = bw.Send([]byte("x"))
	require.NoError(t, err)

	active, err := p.SelectActive(1000)
	require.NoError(t, err)
	require.True(t, active)

	require.Same(t, a, p.GetReadableSocket(0))
	require.Same(t, b, p.GetReadableSocket(0))
	require.Same(t, c, p.GetReadableSocket(0))
	// Each readable socket is reported at most once per select.
	require.Nil(t, p.GetReadableSocket(0))
}

func TestGetReadableSocketStartIndex(t *testing.T) {
	p := NewPool(4)
	a, aw := pipePair(t)
	b, bw := pipePair(t)
	require.True(t, p.Append(a))
	require.True(t, p.Append(b))

	aw.Send([]byte("x"))
	bw.Send([]byte("x"))
	active, err := p.SelectActive(1000)
	require.NoError(t, err)
	require.True(t, active)

	// Skipping slot 0 leaves its bit untouched.
	require.Same(t, b, p.GetReadableSocket(1))
	require.True(t, p.IsReadable(0))
	require.Same(t, a, p.GetReadableSocket(0))
}

func TestRemoveSwapsReadableBit(t *testing.T) {
	p := NewPool(4)
	a, _ := pipePair(t)
	b, bw := pipePair(t)
	c, cw := pipePair(t)
	require.True(t, p.Append(a))
	require.True(t, p.Append(b))
	require.True(t, p.Append(c))

	bw.Send([]byte("x"))
	cw.Send([]byte("x"))
	active, err := p.SelectActive(1000)
	require.NoError(t, err)
	require.True(t, active)

	// Removing slot 1 moves slot 2 (readable) into its place.
	require.True(t, p.Remove(b))
	require.True(t, p.IsReadable(1))
	require.Same(t, c, p.GetReadableSocket(1))
}
