package simulator

import (
	"container/heap"
	"sync"
	"time"
)

type pendingReceipt struct {
	Submit Submit
	DueAt  time.Time
	taken  bool
}

type receiptHeap []*pendingReceipt

func (h *receiptHeap) Len() int {
	return len(*h)
}

func (h *receiptHeap) Less(i int, j int) bool {
	a := *h
	return a[i].DueAt.Before(a[j].DueAt)
}

func (h *receiptHeap) Swap(i int, j int) {
	a := *h
	a[i], a[j] = a[j], a[i]
}

func (h *receiptHeap) Push(v any) {
	*h = append(*h, v.(*pendingReceipt))
}

func (h *receiptHeap) Pop() any {
	a := *h
	n := len(a)
	v := a[n-1]
	a[n-1] = nil
	*h = a[0 : n-1]
	return v
}

// receiptQueue holds receipts until they are due, keyed by message id.
type receiptQueue struct {
	data map[string]*pendingReceipt
	heap receiptHeap
	mu   sync.Mutex
}

func newReceiptQueue() *receiptQueue {
	return &receiptQueue{
		data: make(map[string]*pendingReceipt),
	}
}

func (q *receiptQueue) Put(submit Submit, dueAt time.Time) {
	item := &pendingReceipt{Submit: submit, DueAt: dueAt}

	q.mu.Lock()
	q.data[submit.MessageId] = item
	heap.Push(&q.heap, item)
	q.mu.Unlock()
}

// Cancel drops the receipt of messageId if it is still pending.
func (q *receiptQueue) Cancel(messageId string) bool {
	q.mu.Lock()
	item, ok := q.data[messageId]
	if ok {
		item.taken = true
		delete(q.data, messageId)
	}
	q.mu.Unlock()

	return ok
}

func (q *receiptQueue) TakeDue(now time.Time) []*pendingReceipt {
	q.mu.Lock()
	defer q.mu.Unlock()

	var list []*pendingReceipt
	for len(q.heap) > 0 {
		item := q.heap[0]
		if !item.taken {
			if now.Before(item.DueAt) {
				break
			}
			list = append(list, item)
			item.taken = true
			delete(q.data, item.Submit.MessageId)
		}
		heap.Pop(&q.heap)
	}

	return list
}

func (q *receiptQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}
