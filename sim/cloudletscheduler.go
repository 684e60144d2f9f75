// Implements the per-VM space-shared cloudlet scheduler: an executing list
// (at most vm.Cores cores consumed) and a FIFO waiting list, pulled from as
// cores free up. Grounded on Simulator.makeRunningBatch()/Step() in the
// teacher (token-budget batch formation generalized to core-budget cloudlet
// execution).

package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

const cloudletLengthEpsilon = 1e-6

// CloudletScheduler runs cloudlets on a single VM's cores, space-shared:
// each executing cloudlet owns a fixed share of cores for its lifetime
// (no time-slicing once admitted), matching spec §4.2.
type CloudletScheduler struct {
	vm *VM

	executing []*Cloudlet
	waiting   []*Cloudlet
	finished  []*Cloudlet

	lastUpdateTime int64
	onFinish       func(c *Cloudlet, now int64)
}

// NewCloudletScheduler creates a scheduler bound to vm.
func NewCloudletScheduler(vm *VM) *CloudletScheduler {
	return &CloudletScheduler{vm: vm}
}

// SetOnFinish registers the callback invoked whenever a cloudlet completes.
func (s *CloudletScheduler) SetOnFinish(fn func(c *Cloudlet, now int64)) {
	s.onFinish = fn
}

// Executing, Waiting, Finished return read-only views of the scheduler's
// lists, for observation assembly.
func (s *CloudletScheduler) Executing() []*Cloudlet { return s.executing }
func (s *CloudletScheduler) Waiting() []*Cloudlet    { return s.waiting }
func (s *CloudletScheduler) Finished() []*Cloudlet   { return s.finished }

func (s *CloudletScheduler) usedCores() int {
	used := 0
	for _, c := range s.executing {
		used += c.RequiredCores
	}
	return used
}

// FreeCores returns the cores not currently committed to an executing
// cloudlet.
func (s *CloudletScheduler) FreeCores() int {
	return s.vm.Cores - s.usedCores()
}

func (s *CloudletScheduler) rate(c *Cloudlet) float64 {
	return s.vm.MIPSPerCore * float64(c.RequiredCores)
}

// updateProgress advances FinishedLength for every executing cloudlet to
// now. Idempotent when called twice at the same now (elapsed == 0), which
// lets CloudletFinishEvent handling and VM-destruction harvesting share it
// safely even when an event is stale.
func (s *CloudletScheduler) updateProgress(now int64) {
	if now <= s.lastUpdateTime {
		return
	}
	elapsed := now - s.lastUpdateTime
	for _, c := range s.executing {
		c.FinishedLength = math.Min(c.OriginalLength, c.FinishedLength+float64(elapsed)*s.rate(c))
	}
	s.lastUpdateTime = now
}

// Submit attempts to start or queue c on this VM. Returns false if the VM
// is not yet Created/Running — per spec §4.2's edge case, the caller
// (datacenter) must bounce the submission back to the broker, which resets
// and re-submits the cloudlet rather than losing it.
func (s *CloudletScheduler) Submit(c *Cloudlet, now int64, eng *Engine) bool {
	if s.vm.State != VMRunning {
		return false
	}
	s.updateProgress(now)
	c.Status = StatusInExec
	c.VMID = s.vm.ID
	c.HostID = s.vm.HostID
	if c.ExecStartTime == 0 {
		c.ExecStartTime = now
	}
	if s.FreeCores() >= c.RequiredCores {
		s.executing = append(s.executing, c)
		s.scheduleFinish(c, now, eng)
	} else {
		s.waiting = append(s.waiting, c)
	}
	return true
}

func (s *CloudletScheduler) scheduleFinish(c *Cloudlet, now int64, eng *Engine) {
	remaining := c.RemainingLength()
	rate := s.rate(c)
	if rate <= 0 {
		logrus.Warnf("cloudletscheduler: vm %d has zero MIPS rate for cloudlet %d; scheduling immediate finish", s.vm.ID, c.ID)
		eng.Schedule(NewCloudletFinishEvent(now, c))
		return
	}
	delta := int64(math.Ceil(remaining / rate))
	if delta < 0 {
		delta = 0
	}
	eng.Schedule(NewCloudletFinishEvent(now+delta, c))
}

// HandleFinish processes a CloudletFinishEvent for c. Stale events (c
// already finished, or was harvested by a VM destruction) are silently
// ignored.
func (s *CloudletScheduler) HandleFinish(target *Cloudlet, now int64, eng *Engine) {
	s.updateProgress(now)
	idx := -1
	for i, c := range s.executing {
		if c == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	c := s.executing[idx]
	if c.RemainingLength() > cloudletLengthEpsilon {
		// Not actually done yet (shouldn't normally happen given exact
		// scheduling, but guards against floating-point drift).
		return
	}
	s.executing = append(s.executing[:idx], s.executing[idx+1:]...)
	c.Status = StatusSuccess
	c.FinishedLength = c.OriginalLength
	c.FinishTime = now
	s.finished = append(s.finished, c)
	if s.onFinish != nil {
		s.onFinish(c, now)
	}
	s.admitWaiting(now, eng)
}

// admitWaiting pulls cloudlets from the FIFO waiting list while cores are
// free, in arrival order (spec §4.2).
func (s *CloudletScheduler) admitWaiting(now int64, eng *Engine) {
	for len(s.waiting) > 0 {
		head := s.waiting[0]
		if s.FreeCores() < head.RequiredCores {
			break
		}
		s.waiting = s.waiting[1:]
		head.Status = StatusInExec
		if head.ExecStartTime == 0 {
			head.ExecStartTime = now
		}
		s.executing = append(s.executing, head)
		s.scheduleFinish(head, now, eng)
	}
}

// Harvest detaches every executing and waiting cloudlet (used when the VM
// is destroyed), snapshotting progress at now. The caller is responsible
// for resetting each cloudlet and re-submitting it to the broker (spec
// §4.4 "VM destruction and rescheduling").
func (s *CloudletScheduler) Harvest(now int64) []*Cloudlet {
	s.updateProgress(now)
	harvested := make([]*Cloudlet, 0, len(s.executing)+len(s.waiting))
	harvested = append(harvested, s.executing...)
	harvested = append(harvested, s.waiting...)
	s.executing = nil
	s.waiting = nil
	return harvested
}

// CPUUtilization returns the fraction of this VM's cores currently in use.
func (s *CloudletScheduler) CPUUtilization() float64 {
	if s.vm.Cores == 0 {
		return 0
	}
	return float64(s.usedCores()) / float64(s.vm.Cores)
}
