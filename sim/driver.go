// Implements the simulation driver: reset, step, and termination (spec
// §4.5). Grounded on the teacher's ClusterSimulator.Run() shared-clock
// loop (sim/cluster/cluster.go), restructured from a single blocking Run
// into an external Reset/Step pair so an agent can drive it one decision
// at a time.

package sim

import "math"

// minRunUntilIterationBudget is the floor spec §4.5 sets (>= 1000) for the
// run_until micro-step budget. Nothing reads it; the budget RunUntil
// enforces is engine.go's maxRunUntilIterations.
const minRunUntilIterationBudget = 1000

// Driver owns one simulation run end to end: the engine, datacenter,
// broker, and the bookkeeping needed to answer reset/step.
type Driver struct {
	cfg    Config
	bundle *PolicyBundle

	ctx       *Context
	eng       *Engine
	dc        *Datacenter
	broker    *Broker
	placement PlacementPolicy
	metrics   *Metrics

	steps           int64
	maxPotentialVMs int

	finishedCloudlets []*Cloudlet
	destroyedVMs      []*VM
	vmIdleSince       map[int64]int64
}

// NewDriver creates a Driver for cfg and an optional policy bundle (nil
// uses the config's own defaults for placement).
func NewDriver(cfg Config, bundle *PolicyBundle) *Driver {
	return &Driver{cfg: cfg, bundle: bundle}
}

// Metrics exposes the running aggregate statistics (for Print/CSV
// writers in the baseline drivers).
func (d *Driver) Metrics() *Metrics { return d.metrics }

// Clock returns the current simulated clock.
func (d *Driver) Clock() int64 { return d.eng.Clock }

// RunningVMIDs returns, in ascending-id order, the ids of VMs currently
// in the Running state — the same order/membership a DestroyVM action
// indexes into (spec §4.6).
func (d *Driver) RunningVMIDs() []int64 {
	vms := runningVMs(d.dc)
	ids := make([]int64, len(vms))
	for i, vm := range vms {
		ids[i] = vm.ID
	}
	return ids
}

// VMLoad returns the number of cloudlets (executing + waiting) currently
// bound to vmID, or 0 if vmID is unknown.
func (d *Driver) VMLoad(vmID int64) int {
	vm, ok := d.dc.VMs()[vmID]
	if !ok {
		return 0
	}
	return len(vm.Scheduler.Executing()) + len(vm.Scheduler.Waiting())
}

// AverageUtilization returns the mean CPU utilization across all
// currently-running VMs, or 0 if none are running.
func (d *Driver) AverageUtilization() float64 {
	vms := runningVMs(d.dc)
	if len(vms) == 0 {
		return 0
	}
	var sum float64
	for _, vm := range vms {
		sum += vm.CurrentUtilization()
	}
	return sum / float64(len(vms))
}

// AllocatedCoresRatio returns the fraction of datacenter-wide cores
// currently allocated to VMs.
func (d *Driver) AllocatedCoresRatio() float64 {
	total := d.dc.TotalCores()
	if total == 0 {
		return 0
	}
	return float64(d.dc.AllocatedCores()) / float64(total)
}

// RunningVMCount returns the number of VMs currently in the Running
// state.
func (d *Driver) RunningVMCount() int {
	return len(runningVMs(d.dc))
}

// PreferredScaleUpHostID returns the id of the host with the most free
// cores (ties broken by ascending host id), or -1 if every host is at
// zero free capacity. A bin-packing-preferring baseline driver (e.g.
// cmd/horizontalscale.go) uses this to target a specific host with
// ActionCreateVM instead of delegating the choice to the placement
// policy, which in turn makes Config.ScaleUpOnUnsuitableVM's fallback
// path reachable when that host turns out unsuitable by the time the
// create executes.
func (d *Driver) PreferredScaleUpHostID() int64 {
	bestID := int64(-1)
	bestFree := 0
	for _, h := range d.dc.Hosts() {
		if h.FreeCores() > bestFree {
			bestFree = h.FreeCores()
			bestID = h.ID
		}
	}
	return bestID
}

// FinishedCloudlets returns every cloudlet that has reached a terminal
// state so far this run, in completion order.
func (d *Driver) FinishedCloudlets() []*Cloudlet {
	return d.finishedCloudlets
}

// DestroyedVMs returns every VM torn down so far this run, in
// destruction order, for the baseline drivers' per-VM result file.
func (d *Driver) DestroyedVMs() []*VM {
	return d.destroyedVMs
}

// Config exposes the driver's resolved configuration.
func (d *Driver) Config() Config { return d.cfg }

// OriginalArrivalTime returns the sim time cloudlet id was first admitted
// (spec §3's workload arrival map), for result-artifact writers that must
// report wait/turnaround time independent of any later reschedule.
func (d *Driver) OriginalArrivalTime(id int64) int64 {
	return d.broker.OriginalArrivalTime(id)
}

// Reset terminates any prior run and starts a fresh one seeded by seed
// (spec §4.5).
func (d *Driver) Reset(seed int64) (*Observation, *Info, error) {
	d.bundle.ApplyRewardOverrides(&d.cfg)
	if err := d.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	d.ctx = NewContext(NewSimulationKey(seed))
	d.eng = NewEngine(d.cfg.MinTimeBetweenEvents)
	d.metrics = &Metrics{}
	d.steps = 0

	hosts := make([]*Host, d.cfg.HostsCount)
	for i := 0; i < d.cfg.HostsCount; i++ {
		hosts[i] = NewHost(int64(i), d.cfg.HostPEs, d.cfg.HostPEMIPS, d.cfg.HostRAM, d.cfg.HostBW, d.cfg.HostStorage)
	}

	d.placement = d.resolvePlacementPolicy()
	d.dc = NewDatacenter(d.eng, hosts, d.placement)
	d.broker = NewBroker(d.eng, d.dc)
	d.finishedCloudlets = nil
	d.destroyedVMs = nil
	d.vmIdleSince = make(map[int64]int64)
	d.broker.SetOnFinishExtra(func(c *Cloudlet) {
		d.metrics.RecordFinish(c, d.broker.OriginalArrivalTime(c.ID))
		d.finishedCloudlets = append(d.finishedCloudlets, c)
	})
	d.broker.SetOnVMDestroyedExtra(func(vm *VM) {
		d.metrics.RecordVMDestroyed(vm)
		d.destroyedVMs = append(d.destroyedVMs, vm)
	})

	if err := d.loadWorkload(); err != nil {
		return nil, nil, err
	}

	if err := d.createInitialFleet(); err != nil {
		return nil, nil, err
	}

	d.eng.OnAfterEvent(d.keepAliveListener)

	totalCores := d.dc.TotalCores()
	if d.cfg.MaxPotentialVMsOverride > 0 {
		d.maxPotentialVMs = d.cfg.MaxPotentialVMsOverride
	} else {
		d.maxPotentialVMs = int(math.Ceil(1.1 * float64(totalCores) / float64(d.cfg.SmallVMPEs)))
	}

	d.eng.RunUntil(d.eng.Clock + d.cfg.MinTimeBetweenEvents)

	obs := BuildObservation(d)
	info := &Info{Clock: d.eng.Clock, Observation: obs}
	return obs, info, nil
}

// resolvePlacementPolicy picks the placement policy named in the bundle.
// targeted-round-robin is currently the only implementation (spec §4.3);
// an unrecognized or unset name falls back to it too, since
// PolicyBundle.Validate already rejects unknown names before a run
// starts.
func (d *Driver) resolvePlacementPolicy() PlacementPolicy {
	return NewTargetedRoundRobinPlacement()
}

func (d *Driver) loadWorkload() error {
	var descs []CloudletDescriptor
	var err error
	switch d.cfg.WorkloadMode {
	case WorkloadSWF:
		descs, err = ReadSWF(d.cfg.CloudletTraceFile, d.cfg.WorkloadReaderMIPS, d.cfg.MaxCloudletsToCreateFromWorkload)
	case WorkloadCSV:
		descs, err = ReadCSV(d.cfg.CloudletTraceFile, d.cfg.MaxCloudletsToCreateFromWorkload)
	}
	if err != nil {
		return err
	}
	if d.cfg.SplitLargeCloudlets {
		descs = SplitOversize(descs, d.cfg.MaxCloudletPEs, d.ctx)
	}
	for _, c := range ToCloudlets(descs) {
		d.broker.Submit(c)
	}
	return nil
}

func (d *Driver) createInitialFleet() error {
	sizing := d.cfg.VMSizing()
	counts := []struct {
		t VMType
		n int
	}{
		{VMSmall, d.cfg.InitialSVMCount},
		{VMMedium, d.cfg.InitialMVMCount},
		{VMLarge, d.cfg.InitialLVMCount},
	}
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			id := d.ctx.NextVMID()
			if _, err := d.dc.CreateVM(id, c.t, sizing, d.cfg.VMStartupDelay, d.cfg.VMShutdownDelay, -1); err != nil {
				return err
			}
			d.metrics.RecordVMCreated(len(d.dc.VMs()))
		}
	}
	return nil
}

// keepAliveListener implements spec §4.1's keep-alive injection: during
// the final stretch of an episode (exactly one event left) while the
// broker still reports unfinished work, it injects a NONE-tag tick so
// in-flight cloudlets get a chance to finish instead of the run stalling
// on a single stale event.
func (d *Driver) keepAliveListener(ev Event) {
	if d.eng.Pending() == 1 && d.broker.hasUnfinishedWork() {
		d.eng.Schedule(NewNoneEvent(d.eng.Clock + d.cfg.MinTimeBetweenEvents))
	}
}

// Step applies action, advances the clock by simulation_timestep, and
// returns the resulting observation, reward, termination/truncation
// flags, and info record (spec §4.5).
func (d *Driver) Step(action Action) (*Observation, float64, bool, bool, *Info) {
	info := &Info{HostAffectedID: -1}
	d.applyAction(action, info)

	// run_until (sim/engine.go) already enforces its own iteration budget
	// (maxRunUntilIterations, comfortably above the >= 1000 micro-steps
	// spec §4.5 requires) and logs+breaks rather than spinning forever.
	target := d.eng.Clock + d.cfg.SimulationTimestep
	d.eng.RunUntil(target)

	d.recordHistory()

	waitTimes := d.broker.DrainFinishedWaitTimes()
	reward := ComputeReward(d, waitTimes, info.InvalidActionTaken)

	info.Clock = d.eng.Clock
	info.Reward = reward
	info.WaitTimes = waitTimes
	info.Observation = BuildObservation(d)

	d.steps++
	terminated := !d.eng.IsRunning()
	truncated := d.steps >= d.cfg.MaxEpisodeLength

	return info.Observation, reward.Total(), terminated, truncated, info
}

// recordHistory appends one utilization sample per host and per running
// VM, for post-run analysis and the baseline drivers' result files (spec
// §3).
func (d *Driver) recordHistory() {
	now := d.eng.Clock
	for _, h := range d.dc.Hosts() {
		h.RecordState(now, h.TotalMIPS()*h.CPUUsageRatio(), h.TotalMIPS()*h.CPUUsageRatio())
	}
	for _, vm := range runningVMs(d.dc) {
		vm.RecordUtilization(now, vm.CurrentUtilization())
		d.applyIdleRetirement(vm, now)
	}
}

// applyIdleRetirement destroys vm once it has carried no work for
// IdleVMDestructionDelay ticks. A no-op under the default configuration
// (delay effectively infinite), since VM lifetime is otherwise the
// agent's sole responsibility (spec §4.4 "VM retention").
func (d *Driver) applyIdleRetirement(vm *VM, now int64) {
	busy := len(vm.Scheduler.Executing()) > 0 || len(vm.Scheduler.Waiting()) > 0
	if busy {
		delete(d.vmIdleSince, vm.ID)
		return
	}
	since, tracked := d.vmIdleSince[vm.ID]
	if !tracked {
		d.vmIdleSince[vm.ID] = now
		return
	}
	if now-since >= d.cfg.IdleVMDestructionDelay {
		delete(d.vmIdleSince, vm.ID)
		_ = d.dc.DestroyVM(vm.ID)
	}
}

func (d *Driver) applyAction(action Action, info *Info) {
	switch action.Type {
	case ActionNoop:
		info.InvalidActionTaken = d.broker.WaitQueueLen() > 0

	case ActionAssign:
		ok, _ := d.broker.AssignNextToVM(action.TargetVMID)
		info.AssignmentSuccess = ok
		info.InvalidActionTaken = !ok

	case ActionCreateVM:
		info.CreateAttempted = true
		if action.VMTypeIndex < 0 || action.VMTypeIndex > 2 {
			info.InvalidActionTaken = true
			return
		}
		id := d.ctx.NextVMID()
		vm, err := d.dc.CreateVM(id, VMType(action.VMTypeIndex), d.cfg.VMSizing(), d.cfg.VMStartupDelay, d.cfg.VMShutdownDelay, action.TargetHostID)
		if err != nil {
			if _, unsuitable := err.(*NotSuitableError); unsuitable && d.cfg.ScaleUpOnUnsuitableVM && action.TargetHostID >= 0 {
				vm, err = d.dc.CreateVM(id, VMType(action.VMTypeIndex), d.cfg.VMSizing(), d.cfg.VMStartupDelay, d.cfg.VMShutdownDelay, -1)
			}
			if err != nil {
				info.InvalidActionTaken = true
				return
			}
		}
		info.CreateSuccess = true
		info.HostAffectedID = vm.HostID
		info.CoresAdded = vm.Cores
		d.metrics.RecordVMCreated(len(d.dc.VMs()))

	case ActionDestroyVM:
		info.DestroyAttempted = true
		running := runningVMs(d.dc)
		idx := action.TargetVMID
		if idx < 0 || idx >= int64(len(running)) {
			info.InvalidActionTaken = true
			return
		}
		vm := running[idx]
		if err := d.dc.DestroyVM(vm.ID); err != nil {
			info.InvalidActionTaken = true
			return
		}
		info.DestroySuccess = true
		info.HostAffectedID = vm.HostID
		info.CoresRemoved = vm.Cores
	}
}
