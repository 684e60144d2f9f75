// Implements the broker's dispatch wait queue, which holds cloudlets that
// have arrived but not yet been assigned to a VM. Adapted from the
// teacher's WaitQueue (a FIFO of *Request), generalized to *Cloudlet and
// to support requeue-at-head for the Unsuitable rejection path (spec
// §4.4).

package sim

// WaitQueue is a FIFO queue of cloudlets waiting for dispatch.
type WaitQueue struct {
	queue []*Cloudlet
}

// Enqueue adds a cloudlet to the back of the wait queue.
func (wq *WaitQueue) Enqueue(c *Cloudlet) {
	wq.queue = append(wq.queue, c)
}

// Dequeue removes and returns the cloudlet at the front of the queue, or
// nil if empty.
func (wq *WaitQueue) Dequeue() *Cloudlet {
	if len(wq.queue) == 0 {
		return nil
	}
	c := wq.queue[0]
	wq.queue = wq.queue[1:]
	return c
}

// Requeue puts c back at the front of the queue — used when a dispatch
// attempt rejects a cloudlet as Unsuitable (spec §4.4), so it is retried
// before any cloudlet behind it.
func (wq *WaitQueue) Requeue(c *Cloudlet) {
	wq.queue = append([]*Cloudlet{c}, wq.queue...)
}

// Len reports the number of cloudlets currently waiting.
func (wq *WaitQueue) Len() int { return len(wq.queue) }

// Snapshot returns a copy of the queue contents in FIFO order, for
// observation assembly.
func (wq *WaitQueue) Snapshot() []*Cloudlet {
	out := make([]*Cloudlet, len(wq.queue))
	copy(out, wq.queue)
	return out
}
