package sim

import "fmt"

// NotSuitableError explains why a Host rejected a VM provisioning request.
type NotSuitableError struct {
	HostID int64
	Reason string
}

func (e *NotSuitableError) Error() string {
	return fmt.Sprintf("host %d not suitable: %s", e.HostID, e.Reason)
}

// HostStateSample is one entry in a Host's utilization history, appended
// once per driver step for post-run analysis (spec §3).
type HostStateSample struct {
	Time           int64
	RequestedMIPS  float64
	AllocatedMIPS  float64
	Active         bool
}

// Host is a physical server: an ordered list of cores (each with a MIPS
// capacity), total RAM, bandwidth, and storage. The sum of resources
// allocated to its running VMs never exceeds capacity (spec invariant).
type Host struct {
	ID int64

	CoreCount  int
	MIPSPerCore float64
	TotalRAM    int64
	TotalBW     int64
	TotalStorage int64

	allocatedCores   int
	allocatedRAM     int64
	allocatedBW      int64
	allocatedStorage int64

	vmIDs  []int64
	Active bool

	History []HostStateSample
}

// NewHost creates a Host with the given capacity.
func NewHost(id int64, coreCount int, mipsPerCore float64, ram, bw, storage int64) *Host {
	return &Host{
		ID:           id,
		CoreCount:    coreCount,
		MIPSPerCore:  mipsPerCore,
		TotalRAM:     ram,
		TotalBW:      bw,
		TotalStorage: storage,
	}
}

// TotalMIPS returns the host's aggregate processing capacity.
func (h *Host) TotalMIPS() float64 {
	return float64(h.CoreCount) * h.MIPSPerCore
}

// FreeCores, FreeRAM, FreeBW, FreeStorage report currently unreserved
// capacity.
func (h *Host) FreeCores() int       { return h.CoreCount - h.allocatedCores }
func (h *Host) FreeRAM() int64       { return h.TotalRAM - h.allocatedRAM }
func (h *Host) FreeBW() int64        { return h.TotalBW - h.allocatedBW }
func (h *Host) FreeStorage() int64   { return h.TotalStorage - h.allocatedStorage }

// Suitable reports whether a VM with the given requirements fits.
func (h *Host) Suitable(cores int, ram, bw, storage int64) bool {
	return cores <= h.FreeCores() && ram <= h.FreeRAM() && bw <= h.FreeBW() && storage <= h.FreeStorage()
}

// Provision reserves resources for vm and records it as installed. Returns
// a *NotSuitableError if any dimension is exceeded; the host is left
// unmodified on failure.
func (h *Host) Provision(vm *VM) error {
	if !h.Suitable(vm.Cores, vm.RAM, vm.BW, vm.Storage) {
		reason := "insufficient capacity"
		switch {
		case vm.Cores > h.FreeCores():
			reason = "insufficient cores"
		case vm.RAM > h.FreeRAM():
			reason = "insufficient ram"
		case vm.BW > h.FreeBW():
			reason = "insufficient bandwidth"
		case vm.Storage > h.FreeStorage():
			reason = "insufficient storage"
		}
		return &NotSuitableError{HostID: h.ID, Reason: reason}
	}
	h.allocatedCores += vm.Cores
	h.allocatedRAM += vm.RAM
	h.allocatedBW += vm.BW
	h.allocatedStorage += vm.Storage
	h.vmIDs = append(h.vmIDs, vm.ID)
	vm.HostID = h.ID
	h.Active = true
	return nil
}

// Release gives back the resources reserved for vm. A host with no
// remaining VMs is marked inactive.
func (h *Host) Release(vm *VM) {
	h.allocatedCores -= vm.Cores
	h.allocatedRAM -= vm.RAM
	h.allocatedBW -= vm.BW
	h.allocatedStorage -= vm.Storage
	for i, id := range h.vmIDs {
		if id == vm.ID {
			h.vmIDs = append(h.vmIDs[:i], h.vmIDs[i+1:]...)
			break
		}
	}
	if len(h.vmIDs) == 0 {
		h.Active = false
	}
}

// CPUUsageRatio and RAMUsageRatio report allocated/total for observation
// assembly. Return 0 when capacity is 0 rather than dividing by zero.
func (h *Host) CPUUsageRatio() float64 {
	if h.CoreCount == 0 {
		return 0
	}
	return float64(h.allocatedCores) / float64(h.CoreCount)
}

func (h *Host) RAMUsageRatio() float64 {
	if h.TotalRAM == 0 {
		return 0
	}
	return float64(h.allocatedRAM) / float64(h.TotalRAM)
}

// RecordState appends a utilization sample to the host's history.
func (h *Host) RecordState(time int64, requestedMIPS, allocatedMIPS float64) {
	h.History = append(h.History, HostStateSample{
		Time:          time,
		RequestedMIPS: requestedMIPS,
		AllocatedMIPS: allocatedMIPS,
		Active:        h.Active,
	})
}

// VMIDs returns the ids of VMs currently installed on this host.
func (h *Host) VMIDs() []int64 {
	out := make([]int64, len(h.vmIDs))
	copy(out, h.vmIDs)
	return out
}
