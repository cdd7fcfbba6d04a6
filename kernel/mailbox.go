package kernel

import "sync/atomic"

const mailboxSlots = 8

// Mailbox is a fixed-size single-producer, single-consumer queue.
//
// It never allocates after construction and neither side blocks: the
// producer drops on full, the consumer polls from the scheduling pass.
type Mailbox[T any] struct {
	_     [0]func() // not comparable
	head  atomic.Uint32
	tail  atomic.Uint32
	slots [mailboxSlots]T
}

// TrySend enqueues msg, returning false if the mailbox is full.
func (mb *Mailbox[T]) TrySend(msg T) bool {
	head := mb.head.Load()
	tail := mb.tail.Load()
	if head-tail >= mailboxSlots {
		return false
	}
	mb.slots[head%mailboxSlots] = msg
	mb.head.Store(head + 1)
	return true
}

// TryRecv dequeues one message, returning false if the mailbox is empty.
func (mb *Mailbox[T]) TryRecv() (T, bool) {
	tail := mb.tail.Load()
	head := mb.head.Load()
	if tail == head {
		var zero T
		return zero, false
	}
	msg := mb.slots[tail%mailboxSlots]
	var zero T
	mb.slots[tail%mailboxSlots] = zero
	mb.tail.Store(tail + 1)
	return msg, true
}

// Len returns the number of queued messages.
func (mb *Mailbox[T]) Len() int {
	return int(mb.head.Load() - mb.tail.Load())
}
