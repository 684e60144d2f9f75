// Implements the agent bridge: action parsing, observation assembly, and
// reward decomposition (spec §4.6). Grounded on the teacher's metrics
// aggregation style (sim/metrics_utils.go, now folded in) for the
// stats-over-a-collection shape, and uses gonum.org/v1/gonum/stat for the
// utilization-balance term's mean/stddev — the one piece of real
// numerical-stats work in the bridge, matching how the teacher reaches
// for gonum rather than hand-rolling moment computations.

package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ActionType distinguishes the four action kinds of the full action
// tuple (spec §4.6).
type ActionType int

const (
	ActionNoop ActionType = iota
	ActionAssign
	ActionCreateVM
	ActionDestroyVM
)

// Action is the agent's per-step decision: a tuple (action_type,
// target_vm_id, target_host_id, vm_type_index).
type Action struct {
	Type         ActionType
	TargetVMID   int64 // Assign: VM id. DestroyVM: index into the running-VM list.
	TargetHostID int64 // CreateVM: host id, or -1 for "let the placement policy choose"
	VMTypeIndex  int   // CreateVM: 0=Small, 1=Medium, 2=Large
}

// NewSingleIntAction builds the simpler single-integer action variant:
// target_vm_id only, -1 meaning No-op (spec §4.6).
func NewSingleIntAction(targetVMID int64) Action {
	if targetVMID < 0 {
		return Action{Type: ActionNoop, TargetHostID: -1}
	}
	return Action{Type: ActionAssign, TargetVMID: targetVMID, TargetHostID: -1}
}

// Observation is the fixed-width padded snapshot returned each step
// (spec §3).
type Observation struct {
	HostCPUUsage []float64
	HostRAMUsage []float64

	VMCPULoad        []float64
	VMAvailableCores []int
	VMTypeCode       []int   // 0=empty, 1=S, 2=M, 3=L
	VMHostMap        []int64 // -1=empty

	WaitingCloudletCount   int
	NextCloudletCoreDemand int
	ActualHostCount        int
	ActualVMCount          int

	Tree []int64
}

// RewardComponents holds each already-signed (non-positive) contribution
// to the step reward (spec §4.6).
type RewardComponents struct {
	WaitTimePenalty           float64
	UtilizationBalancePenalty float64
	QueuePenalty              float64
	InvalidActionPenalty      float64
	CostPenalty               float64 // 0 unless Config.CostPenaltyEnabled
}

// Total sums the components into the scalar reward.
func (r RewardComponents) Total() float64 {
	return r.WaitTimePenalty + r.UtilizationBalancePenalty + r.QueuePenalty + r.InvalidActionPenalty + r.CostPenalty
}

// Info is the per-step info record (spec §4.6).
type Info struct {
	Clock      int64
	Reward     RewardComponents
	WaitTimes  []int64

	AssignmentSuccess  bool
	CreateAttempted    bool
	CreateSuccess      bool
	DestroyAttempted   bool
	DestroySuccess     bool
	InvalidActionTaken bool

	HostAffectedID  int64
	CoresAdded      int
	CoresRemoved    int

	Observation *Observation
}

func buildInfraTree(dc *Datacenter) []int64 {
	hosts := dc.Hosts()
	tree := make([]int64, 0, 2+4*len(hosts))
	tree = append(tree, int64(dc.TotalCores()), int64(len(hosts)))

	vmsByHost := make(map[int64][]*VM)
	for _, vm := range dc.VMs() {
		vmsByHost[vm.HostID] = append(vmsByHost[vm.HostID], vm)
	}
	for _, vms := range vmsByHost {
		sort.Slice(vms, func(i, j int) bool { return vms[i].ID < vms[j].ID })
	}

	for _, h := range hosts {
		vms := vmsByHost[h.ID]
		tree = append(tree, int64(h.CoreCount), int64(len(vms)))
		for _, vm := range vms {
			cloudlets := append(append([]*Cloudlet{}, vm.Scheduler.Executing()...), vm.Scheduler.Waiting()...)
			tree = append(tree, int64(vm.Cores), int64(len(cloudlets)))
			for _, c := range cloudlets {
				tree = append(tree, int64(c.RequiredCores), 0)
			}
		}
	}
	return tree
}

// BuildObservation assembles the padded observation from current driver
// state.
func BuildObservation(d *Driver) *Observation {
	hosts := d.dc.Hosts()
	obs := &Observation{
		HostCPUUsage:           make([]float64, len(hosts)),
		HostRAMUsage:           make([]float64, len(hosts)),
		VMCPULoad:              make([]float64, d.maxPotentialVMs),
		VMAvailableCores:       make([]int, d.maxPotentialVMs),
		VMTypeCode:             make([]int, d.maxPotentialVMs),
		VMHostMap:              make([]int64, d.maxPotentialVMs),
		WaitingCloudletCount:   d.broker.WaitQueueLen(),
		NextCloudletCoreDemand: 0,
		ActualHostCount:        len(hosts),
		Tree:                   buildInfraTree(d.dc),
	}
	for i := range obs.VMHostMap {
		obs.VMHostMap[i] = -1
	}
	for i, h := range hosts {
		obs.HostCPUUsage[i] = h.CPUUsageRatio()
		obs.HostRAMUsage[i] = h.RAMUsageRatio()
	}

	if head := d.broker.WaitQueueSnapshot(); len(head) > 0 {
		obs.NextCloudletCoreDemand = head[0].RequiredCores
	}

	vms := orderedVMs(d.dc)
	obs.ActualVMCount = len(vms)
	for i, vm := range vms {
		if i >= d.maxPotentialVMs {
			break
		}
		obs.VMCPULoad[i] = vm.CurrentUtilization()
		obs.VMAvailableCores[i] = vm.Scheduler.FreeCores()
		obs.VMTypeCode[i] = int(vm.Type) + 1
		obs.VMHostMap[i] = vm.HostID
	}
	return obs
}

// orderedVMs returns every installed VM sorted by ascending id — the
// canonical order both observation slots and DestroyVM's running-list
// index are defined against.
func orderedVMs(dc *Datacenter) []*VM {
	vms := make([]*VM, 0, len(dc.VMs()))
	for _, vm := range dc.VMs() {
		vms = append(vms, vm)
	}
	sort.Slice(vms, func(i, j int) bool { return vms[i].ID < vms[j].ID })
	return vms
}

// runningVMs returns, in ascending-id order, only the VMs currently in
// the Running state — the list ActionDestroyVM's TargetVMID indexes into
// (spec §4.6).
func runningVMs(dc *Datacenter) []*VM {
	all := orderedVMs(dc)
	out := make([]*VM, 0, len(all))
	for _, vm := range all {
		if vm.State == VMRunning {
			out = append(out, vm)
		}
	}
	return out
}

func meanInt64(xs []int64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int64
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

// ComputeReward decomposes the step reward into its named components
// (spec §4.6).
func ComputeReward(d *Driver, waitTimes []int64, invalidAction bool) RewardComponents {
	cfg := d.cfg
	var r RewardComponents

	if len(waitTimes) > 0 {
		r.WaitTimePenalty = -cfg.RewardWaitTimeCoef * math.Log1p(meanInt64(waitTimes))
	}

	var utils []float64
	for _, vm := range d.dc.VMs() {
		if vm.State == VMRunning {
			utils = append(utils, vm.CurrentUtilization())
		}
	}
	if len(utils) > 0 {
		mean := stat.Mean(utils, nil)
		std := stat.StdDev(utils, nil)
		r.UtilizationBalancePenalty = -cfg.RewardUnutilizationCoef * (std + math.Abs(mean-0.95))
	}

	if arrived := d.broker.ArrivedCount(); arrived > 0 {
		notYetRunning := float64(d.broker.WaitQueueLen())
		r.QueuePenalty = -cfg.RewardQueuePenaltyCoef * (notYetRunning / float64(arrived))
	}

	if invalidAction {
		r.InvalidActionPenalty = -cfg.RewardInvalidActionCoef
	}

	if cfg.CostPenaltyEnabled {
		total := d.dc.TotalCores()
		if total > 0 {
			r.CostPenalty = -cfg.RewardCostCoef * (float64(d.dc.AllocatedCores()) / float64(total))
		}
	}

	return r
}
