package broker

import (
	"context"
	"sync"

	pb "go.linemq.dev/core/broker/protocol"
)

// Queue is an ordered queue of Messages. Implementations must be safe for
// concurrent use, and must deliver Messages in exactly the order in which
// they were enqueued.
type Queue interface {
	// Enqueue appends the Message at the Queue tail. It never blocks, but may
	// fail with ErrPartitionFull if the Queue is bounded.
	Enqueue(pb.Message) error
	// Dequeue removes and returns the Message at the Queue head, blocking
	// until one is available or the Context is cancelled.
	Dequeue(context.Context) (pb.Message, error)
	// Status returns a snapshot of the Queue. The returned Index is zero.
	Status() pb.PartitionStatus
}

// NewQueueFunc returns a new, empty Queue.
type NewQueueFunc func() Queue

// Partition is the Queue of a topic partition: an in-memory FIFO of Messages
// guarded by its own mutex. An Enqueue wakes at most one blocked Dequeue.
type Partition struct {
	mu      sync.Mutex
	msgs    []pb.Message    // Queued Messages are msgs[head:].
	head    int             // Index of the next Message to dequeue.
	bytes   int64           // Total Content length of queued Messages.
	limit   int             // Maximum number of queued Messages, or zero if unbounded.
	waiters []chan struct{} // Blocked Dequeues, in arrival order.
}

// NewPartition returns a new, empty and unbounded Partition.
func NewPartition() *Partition { return new(Partition) }

// NewBoundedPartition returns a new, empty Partition which holds at most
// |limit| Messages. A |limit| of zero is unbounded.
func NewBoundedPartition(limit int) *Partition {
	if limit < 0 {
		panic("limit must be >= 0")
	}
	return &Partition{limit: limit}
}

// NewBoundedPartitionFunc returns a NewQueueFunc of bounded Partitions.
func NewBoundedPartitionFunc(limit int) NewQueueFunc {
	return func() Queue { return NewBoundedPartition(limit) }
}

// Enqueue the Message at the Partition tail, and wake one blocked Dequeue.
func (p *Partition) Enqueue(msg pb.Message) error {
	defer p.mu.Unlock()
	p.mu.Lock()

	if p.limit != 0 && len(p.msgs)-p.head >= p.limit {
		return pb.ErrPartitionFull
	}
	p.msgs = append(p.msgs, msg)
	p.bytes += int64(len(msg.Content))
	p.signalOne()

	return nil
}

// Dequeue removes and returns the Message at the Partition head. If the
// Partition is empty, Dequeue blocks until a Message is enqueued. If |ctx|
// is cancelled first, Dequeue returns its error and removes no Message.
func (p *Partition) Dequeue(ctx context.Context) (pb.Message, error) {
	defer p.mu.Unlock()
	p.mu.Lock()

	// Another Dequeue may claim the Message of our wake-up before we re-acquire
	// |mu|, so emptiness is re-checked on every iteration.
	for p.head == len(p.msgs) {
		var ch = make(chan struct{})
		p.waiters = append(p.waiters, ch)

		p.mu.Unlock()
		select {
		case <-ch:
			p.mu.Lock()
		case <-ctx.Done():
			p.mu.Lock()

			if !p.removeWaiter(ch) && p.head != len(p.msgs) {
				// We were signalled concurrently with cancellation.
				// Pass the wake-up along, so it's not lost.
				p.signalOne()
			}
			return pb.Message{}, ctx.Err()
		}
	}

	var msg = p.msgs[p.head]
	p.msgs[p.head] = pb.Message{}
	p.head++
	p.bytes -= int64(len(msg.Content))

	if p.head == len(p.msgs) {
		p.msgs, p.head = p.msgs[:0], 0
	} else if p.head >= compactThreshold && p.head*2 >= len(p.msgs) {
		var n = copy(p.msgs, p.msgs[p.head:])
		clear(p.msgs[n:])
		p.msgs, p.head = p.msgs[:n], 0
	}
	return msg, nil
}

// Status returns a snapshot of the Partition.
func (p *Partition) Status() pb.PartitionStatus {
	defer p.mu.Unlock()
	p.mu.Lock()

	return pb.PartitionStatus{
		Depth:   len(p.msgs) - p.head,
		Bytes:   p.bytes,
		Limit:   p.limit,
		Waiters: len(p.waiters),
	}
}

// signalOne wakes the longest-blocked Dequeue, if any. |mu| must be held.
func (p *Partition) signalOne() {
	if len(p.waiters) == 0 {
		return
	}
	close(p.waiters[0])
	p.waiters[0] = nil
	p.waiters = p.waiters[1:]
}

// removeWaiter removes |ch| from the waiters of the Partition, returning false
// if it was already removed by signalOne. |mu| must be held.
func (p *Partition) removeWaiter(ch chan struct{}) bool {
	for i, w := range p.waiters {
		if w == ch {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// compactThreshold is the minimum number of dequeued Messages at the front
// of a Partition's slice before it's compacted.
const compactThreshold = 1024
