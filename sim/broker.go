// Implements the broker: the dispatch wait queue plus agent-facing
// assignment, VM-destruction rescheduling, and the finished-wait sink
// feeding reward calculation. Grounded on the teacher's ClusterSimulator
// request-routing orchestration (sim/cluster/cluster.go), generalized
// from request-to-instance routing to cloudlet-to-VM dispatch; the
// future-arrival queue reuses the engine's own event heap (a
// CloudletArrivalEvent per cloudlet) rather than a second bespoke
// priority structure.

package sim

import "github.com/sirupsen/logrus"

// NullVM is the sentinel returned by AutoMap: dispatch is always
// externally driven, so any code path that asks the broker to pick a VM
// itself gets this instead (spec §4.4 "default mapping is disabled").
const NullVM int64 = -1

// Broker owns the dispatch wait queue and orchestrates agent-directed
// assignment, bounce-backs, and VM-destruction rescheduling.
type Broker struct {
	eng *Engine
	dc  *Datacenter

	wait      WaitQueue
	submitted map[int64]*Cloudlet // cloudletID -> cloudlet currently bound to a VM

	// firstArrival is the workload arrival map (spec §3): cloudlet id to
	// the sim time it was first admitted, set once and never touched by
	// later VM-destruction or bounce-back reschedules, so wait-time and
	// turnaround reporting always measures from the cloudlet's true
	// arrival rather than its most recent re-admission.
	firstArrival map[int64]int64

	finishedWaitBuffer []int64
	arrivedCount       int64

	// onFinishExtra/onVMDestroyedExtra let a collaborator (the driver's
	// Metrics) observe the same events the broker reacts to, without the
	// broker needing to know Metrics exists.
	onFinishExtra      func(c *Cloudlet)
	onVMDestroyedExtra func(vm *VM)
}

// NewBroker creates a Broker wired to dc's lifecycle callbacks and
// registers its arrival listener and unfinished-work checker on eng.
func NewBroker(eng *Engine, dc *Datacenter) *Broker {
	b := &Broker{
		eng:          eng,
		dc:           dc,
		submitted:    make(map[int64]*Cloudlet),
		firstArrival: make(map[int64]int64),
	}
	eng.On(TagCloudletArrival, b.handleArrival)
	eng.RegisterUnfinishedWorkChecker(b.hasUnfinishedWork)
	dc.SetOnCloudletBounce(b.handleBounce)
	dc.SetOnCloudletFinish(b.handleFinish)
	dc.SetOnVMDestroyed(b.handleVMDestroyed)
	return b
}

// SetOnFinishExtra and SetOnVMDestroyedExtra register additional
// observers invoked alongside the broker's own handling, e.g. the
// driver's Metrics accumulator.
func (b *Broker) SetOnFinishExtra(fn func(c *Cloudlet)) { b.onFinishExtra = fn }
func (b *Broker) SetOnVMDestroyedExtra(fn func(vm *VM)) { b.onVMDestroyedExtra = fn }

// Submit injects a freshly-loaded cloudlet into the simulation: it will
// be admitted into the wait queue when the engine's clock reaches its
// ArrivalTime.
func (b *Broker) Submit(c *Cloudlet) {
	b.eng.Schedule(NewCloudletArrivalEvent(c.ArrivalTime, c))
}

func (b *Broker) handleArrival(ev Event) {
	e := ev.(*CloudletArrivalEvent)
	c := e.Cloudlet
	if _, seen := b.firstArrival[c.ID]; !seen {
		b.firstArrival[c.ID] = c.ArrivalTime
		b.arrivedCount++
	}
	b.wait.Enqueue(c)
}

// OriginalArrivalTime returns the sim time id was first admitted (spec
// §3's workload arrival map, §4.4 "established once at reset ... and
// never changes"). Returns 0 for an id never seen, which cannot happen
// for any cloudlet reachable from the broker's own callbacks.
func (b *Broker) OriginalArrivalTime(id int64) int64 {
	return b.firstArrival[id]
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// AssignNextToVM dequeues the head of the wait queue and attempts to bind
// it to vmID, per spec §4.4. On any rejection other than EmptyQueue, the
// cloudlet is requeued at the head so no arrived cloudlet is ever lost
// (the conservation invariant, spec §8).
func (b *Broker) AssignNextToVM(vmID int64) (bool, error) {
	c := b.wait.Dequeue()
	if c == nil {
		return false, &ErrEmptyQueue{}
	}

	vm, ok := b.dc.VMs()[vmID]
	if !ok {
		b.wait.Requeue(c)
		return false, &ErrUnknownVM{VMID: vmID}
	}
	if vm.State != VMRunning {
		b.wait.Requeue(c)
		return false, &ErrVMNotRunning{VMID: vmID, State: vm.State}
	}

	reason := ""
	switch {
	case c.RequiredCores > vm.Cores:
		reason = "insufficient cores"
	case c.FileSizeIn+c.FileSizeOut > vm.Storage:
		reason = "insufficient file-size capacity"
	}
	if reason != "" {
		b.wait.Requeue(c)
		return false, &ErrUnsuitable{VMID: vmID, CloudletID: c.ID, Reason: reason}
	}

	c.SubmissionDelay = maxInt64(0, c.ArrivalTime-b.eng.Clock)
	c.VMID = vmID
	c.HostID = vm.HostID
	b.submitted[c.ID] = c
	b.eng.Schedule(NewCloudletSubmitEvent(b.eng.Clock+c.SubmissionDelay, c, vmID))
	return true, nil
}

// AutoMap always refuses: dispatch is always externally driven (spec
// §4.4).
func (b *Broker) AutoMap(c *Cloudlet) int64 {
	logrus.Warnf("broker: auto-mapping is disabled for cloudlet %d; dispatch must be externally driven", c.ID)
	return NullVM
}

func (b *Broker) handleBounce(c *Cloudlet) {
	logrus.Warnf("broker: cloudlet %d bounced (target vm not yet created); resubmitting", c.ID)
	delete(b.submitted, c.ID)
	c.ResetForReschedule(b.eng.Clock)
	b.eng.Schedule(NewCloudletArrivalEvent(c.ArrivalTime, c))
}

func (b *Broker) handleFinish(c *Cloudlet, now int64) {
	delete(b.submitted, c.ID)
	waitTime := c.ExecStartTime - b.OriginalArrivalTime(c.ID)
	b.finishedWaitBuffer = append(b.finishedWaitBuffer, waitTime)
	if b.onFinishExtra != nil {
		b.onFinishExtra(c)
	}
}

// handleVMDestroyed resets and re-admits every cloudlet harvested off a
// destroyed VM, with arrival time set to now so they are re-admitted on
// the next arrival pass (spec §4.4).
func (b *Broker) handleVMDestroyed(vm *VM, harvested []*Cloudlet) {
	for _, c := range harvested {
		delete(b.submitted, c.ID)
		if c.RemainingLength() <= cloudletLengthEpsilon {
			// Finished its work exactly as the VM was torn down: treat as
			// a normal completion rather than a reschedule (spec §4.4).
			c.Status = StatusSuccess
			c.FinishTime = b.eng.Clock
			b.finishedWaitBuffer = append(b.finishedWaitBuffer, c.ExecStartTime-b.OriginalArrivalTime(c.ID))
			if b.onFinishExtra != nil {
				b.onFinishExtra(c)
			}
			continue
		}
		c.ResetForReschedule(b.eng.Clock)
		b.eng.Schedule(NewCloudletArrivalEvent(c.ArrivalTime, c))
	}
	if b.onVMDestroyedExtra != nil {
		b.onVMDestroyedExtra(vm)
	}
}

func (b *Broker) hasUnfinishedWork() bool {
	return b.wait.Len() > 0 || len(b.submitted) > 0
}

// DrainFinishedWaitTimes returns and clears the wait times of cloudlets
// that finished since the last drain (spec §4.4's finished-wait sink,
// consumed each step by the reward computation).
func (b *Broker) DrainFinishedWaitTimes() []int64 {
	buf := b.finishedWaitBuffer
	b.finishedWaitBuffer = nil
	return buf
}

// WaitQueueLen, WaitQueueSnapshot, SubmittedCount, ArrivedCount expose
// broker state for observation assembly.
func (b *Broker) WaitQueueLen() int                { return b.wait.Len() }
func (b *Broker) WaitQueueSnapshot() []*Cloudlet    { return b.wait.Snapshot() }
func (b *Broker) SubmittedCount() int               { return len(b.submitted) }
func (b *Broker) ArrivedCount() int64               { return b.arrivedCount }
