// Owns the Host list and installed VMs, drives VM lifecycle events and
// cloudlet submission. Grounded on the teacher's ClusterSimulator, whose
// shared-clock coordination loop over instance events is generalized here
// into per-entity engine listener registration (sim/cluster/cluster.go).

package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Datacenter holds the physical hosts and every VM currently installed on
// them, and reacts to VM/cloudlet lifecycle events dispatched by the
// engine.
type Datacenter struct {
	eng       *Engine
	placement PlacementPolicy

	hosts []*Host
	vms   map[int64]*VM

	// onCloudletBounce is invoked when a CLOUDLET_SUBMIT arrives for a VM
	// that is not yet Running (spec §4.2 edge case): the broker resets and
	// re-submits the cloudlet rather than losing it.
	onCloudletBounce func(c *Cloudlet)

	// onCloudletFinish is wired into every VM's scheduler so the broker can
	// record wait times in its finished-wait sink (spec §4.4).
	onCloudletFinish func(c *Cloudlet, now int64)

	// onVMDestroyed delivers harvested in-flight cloudlets back to the
	// broker for rescheduling (spec §4.4).
	onVMDestroyed func(vm *VM, harvested []*Cloudlet)
}

// NewDatacenter creates a Datacenter with the given hosts (sorted
// ascending by id, per the placement policy's round-robin contract) and
// registers its event listeners on eng.
func NewDatacenter(eng *Engine, hosts []*Host, placement PlacementPolicy) *Datacenter {
	sorted := make([]*Host, len(hosts))
	copy(sorted, hosts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	dc := &Datacenter{
		eng:       eng,
		placement: placement,
		hosts:     sorted,
		vms:       make(map[int64]*VM),
	}
	eng.On(TagVMCreate, dc.handleVMCreate)
	eng.On(TagVMStarted, dc.handleVMStarted)
	eng.On(TagVMDestroy, dc.handleVMDestroy)
	eng.On(TagVMDestroyed, dc.handleVMDestroyed)
	eng.On(TagCloudletSubmit, dc.handleCloudletSubmit)
	eng.On(TagCloudletFinish, dc.handleCloudletFinish)
	return dc
}

// SetOnCloudletBounce, SetOnCloudletFinish, SetOnVMDestroyed wire the
// broker's callbacks. Called once during driver setup.
func (dc *Datacenter) SetOnCloudletBounce(fn func(c *Cloudlet))                 { dc.onCloudletBounce = fn }
func (dc *Datacenter) SetOnCloudletFinish(fn func(c *Cloudlet, now int64))      { dc.onCloudletFinish = fn }
func (dc *Datacenter) SetOnVMDestroyed(fn func(vm *VM, harvested []*Cloudlet)) { dc.onVMDestroyed = fn }

// Hosts returns the hosts in ascending-id order.
func (dc *Datacenter) Hosts() []*Host { return dc.hosts }

// VMs returns every VM currently installed (any lifecycle state up to
// ShuttingDown; Destroyed VMs are removed).
func (dc *Datacenter) VMs() map[int64]*VM { return dc.vms }

func (dc *Datacenter) hostByID(id int64) *Host {
	for _, h := range dc.hosts {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// TotalCores sums core capacity across all hosts.
func (dc *Datacenter) TotalCores() int {
	total := 0
	for _, h := range dc.hosts {
		total += h.CoreCount
	}
	return total
}

// AllocatedCores sums cores committed to any installed VM.
func (dc *Datacenter) AllocatedCores() int {
	total := 0
	for _, vm := range dc.vms {
		total += vm.Cores
	}
	return total
}

// CreateVM places a new VM of type vmType on a host chosen by the
// placement policy (honoring targetHostID, a negative value meaning "no
// preference"), provisions its resources, wires its scheduler's finish
// callback, and schedules its VMCreateEvent for the current clock tick.
// Returns the NotSuitableError (or other placement error) unchanged on
// failure; no VM is created and no event scheduled.
func (dc *Datacenter) CreateVM(id int64, vmType VMType, sizing VMSizing, startupDelay, shutdownDelay, targetHostID int64) (*VM, error) {
	vm := NewVM(id, vmType, sizing, startupDelay, shutdownDelay)
	vm.TargetHostID = targetHostID

	host, err := dc.placement.SelectHost(vm, dc.hosts)
	if err != nil {
		return nil, err
	}
	if err := host.Provision(vm); err != nil {
		return nil, err
	}

	vm.Scheduler.SetOnFinish(dc.onCloudletFinish)
	dc.vms[vm.ID] = vm
	dc.eng.Schedule(NewVMCreateEvent(dc.eng.Clock, vm.ID))
	return vm, nil
}

// DestroyVM begins the shutdown sequence for the named VM. Returns an
// error if the VM is unknown or not Running (spec §4.6 action type 3).
func (dc *Datacenter) DestroyVM(vmID int64) error {
	vm, ok := dc.vms[vmID]
	if !ok {
		return fmt.Errorf("datacenter: unknown vm %d", vmID)
	}
	if vm.State != VMRunning {
		return fmt.Errorf("datacenter: vm %d not running (state %s)", vmID, vm.State)
	}
	dc.eng.Schedule(NewVMDestroyEvent(dc.eng.Clock, vmID))
	return nil
}

func (dc *Datacenter) handleVMCreate(ev Event) {
	e := ev.(*VMCreateEvent)
	vm, ok := dc.vms[e.VMID]
	if !ok {
		return
	}
	vm.State = VMStarting
	dc.eng.Schedule(NewVMStartedEvent(dc.eng.Clock+vm.StartupDelay, vm.ID))
}

func (dc *Datacenter) handleVMStarted(ev Event) {
	e := ev.(*VMStartedEvent)
	vm, ok := dc.vms[e.VMID]
	if !ok {
		return
	}
	vm.State = VMRunning
}

func (dc *Datacenter) handleVMDestroy(ev Event) {
	e := ev.(*VMDestroyEvent)
	vm, ok := dc.vms[e.VMID]
	if !ok {
		return
	}
	vm.State = VMShuttingDown
	dc.eng.Schedule(NewVMDestroyedEvent(dc.eng.Clock+vm.ShutdownDelay, vm.ID))
}

func (dc *Datacenter) handleVMDestroyed(ev Event) {
	e := ev.(*VMDestroyedEvent)
	vm, ok := dc.vms[e.VMID]
	if !ok {
		return
	}
	harvested := vm.Scheduler.Harvest(dc.eng.Clock)
	vm.State = VMDestroyed
	if host := dc.hostByID(vm.HostID); host != nil {
		host.Release(vm)
	}
	delete(dc.vms, vm.ID)
	if dc.onVMDestroyed != nil {
		dc.onVMDestroyed(vm, harvested)
	}
}

func (dc *Datacenter) handleCloudletSubmit(ev Event) {
	e := ev.(*CloudletSubmitEvent)
	vm, ok := dc.vms[e.VMID]
	if !ok {
		logrus.Warnf("datacenter: cloudlet %d submitted to unknown vm %d; bouncing", e.Cloudlet.ID, e.VMID)
		if dc.onCloudletBounce != nil {
			dc.onCloudletBounce(e.Cloudlet)
		}
		return
	}
	if !vm.Scheduler.Submit(e.Cloudlet, dc.eng.Clock, dc.eng) {
		if dc.onCloudletBounce != nil {
			dc.onCloudletBounce(e.Cloudlet)
		}
	}
}

// handleCloudletFinish routes a CloudletFinishEvent to the owning VM's
// scheduler. A VM destroyed between scheduling and firing (its cloudlets
// already harvested) makes this a silent no-op — the event is stale.
func (dc *Datacenter) handleCloudletFinish(ev Event) {
	e := ev.(*CloudletFinishEvent)
	vm, ok := dc.vms[e.Cloudlet.VMID]
	if !ok {
		return
	}
	vm.Scheduler.HandleFinish(e.Cloudlet, dc.eng.Clock, dc.eng)
}
