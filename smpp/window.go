package smpp

import (
	"sync"
	"time"
)

// Window holds submitted requests until their responses arrive.
type Window interface {
	Put(*Request) error
	Take(int32) *Request
	TakeTimeout() []*Request
	Len() int
}

type MapWindow struct {
	size int                // capacity
	wait int64              // seconds before a request times out
	data map[int32]*Request // keyed by sequence number
	mu   sync.Mutex
}

func NewMapWindow(size int, wait time.Duration) *MapWindow {
	return &MapWindow{
		size: size,
		wait: int64(wait.Seconds()),
		data: make(map[int32]*Request, size),
	}
}

func (w *MapWindow) Put(request *Request) error {
	w.mu.Lock()
	err := w.put(request)
	w.mu.Unlock()

	return err
}

func (w *MapWindow) put(request *Request) error {
	if len(w.data) >= w.size {
		return ErrWindowFull
	}

	w.data[request.Pdu.GetSequenceNumber()] = request

	return nil
}

func (w *MapWindow) Take(sequence int32) *Request {
	w.mu.Lock()
	request, ok := w.data[sequence]
	if ok {
		delete(w.data, sequence)
	}
	w.mu.Unlock()

	return request
}

func (w *MapWindow) TakeTimeout() []*Request {
	requests := make([]*Request, 0, w.size/5)

	w.mu.Lock()
	curr := time.Now().Unix()
	for seq, request := range w.data {
		if curr-w.wait > request.SubmitAt {
			delete(w.data, seq)
			requests = append(requests, request)
		}
	}
	w.mu.Unlock()

	return requests
}

// TakeAll empties the window, used when the session goes down.
func (w *MapWindow) TakeAll() []*Request {
	w.mu.Lock()
	requests := make([]*Request, 0, len(w.data))
	for seq, request := range w.data {
		delete(w.data, seq)
		requests = append(requests, request)
	}
	w.mu.Unlock()

	return requests
}

func (w *MapWindow) Len() int {
	w.mu.Lock()
	n := len(w.data)
	w.mu.Unlock()

	return n
}
