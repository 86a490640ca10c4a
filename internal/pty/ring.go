package pty

// RingBuffer keeps the most recent bytes written to it
type RingBuffer struct {
	data  []byte
	size  int
	write int
	full  bool
}

// NewRingBuffer creates a new ring buffer with the given size
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		data: make([]byte, size),
		size: size,
	}
}

func (rb *RingBuffer) Write(p []byte) {
	for _, b := range p {
		rb.data[rb.write] = b
		rb.write = (rb.write + 1) % rb.size
		if rb.write == 0 {
			rb.full = true
		}
	}
}

// String returns the buffer contents from oldest to newest
func (rb *RingBuffer) String() string {
	if !rb.full {
		return string(rb.data[:rb.write])
	}
	out := make([]byte, 0, rb.size)
	out = append(out, rb.data[rb.write:]...)
	out = append(out, rb.data[:rb.write]...)
	return string(out)
}
