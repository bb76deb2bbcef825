package socket

// Stream adapts a socket to the stream.Input / stream.Output contracts.
type Stream struct {
	S *Socket
}

func (st Stream) Size() int        { return 0 }
func (st Stream) HasContent() bool { return true }

func (st Stream) Read(buf []byte) int {
	n, err := st.S.Recv(buf)
	if err != nil {
		return 0
	}
	return n
}

func (st Stream) Write(buf []byte) int {
	n, err := st.S.Send(buf)
	if err != nil {
		return n
	}
	return n
}
