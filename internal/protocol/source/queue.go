package source

import (
	"sync"

	"github.com/danmuck/pktframe/internal/protocol"
)

// Queue is an in-memory FIFO byte source. Producers may Push from any
// goroutine.
type Queue struct {
	mu   sync.Mutex
	data []byte
}

func NewQueue(data ...byte) *Queue {
	q := &Queue{}
	q.Push(data...)
	return q
}

func (q *Queue) Push(data ...byte) {
	q.mu.Lock()
	q.data = append(q.data, data...)
	q.mu.Unlock()
}

func (q *Queue) Available() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data) > 0
}

func (q *Queue) ReadByte() (byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return 0, protocol.ErrNoByte
	}
	c := q.data[0]
	q.data = q.data[1:]
	return c, nil
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}
