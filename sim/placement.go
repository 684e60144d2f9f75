// Implements the VM -> Host placement policy: agent-targeted placement
// with a round-robin fallback. Grounded on the teacher's RoutingPolicy
// factory-registry shape (sim/routing.go), generalized from request-to-
// instance routing to VM-to-host placement.

package sim

import "fmt"

// PlacementPolicy selects a Host for vm out of hosts, or reports why none
// is suitable.
type PlacementPolicy interface {
	SelectHost(vm *VM, hosts []*Host) (*Host, error)
}

// TargetedRoundRobinPlacement implements spec §4.3: if vm.TargetHostID
// names a host (set by the agent via its placement hint), placement is
// attempted there only — no fallback, since an explicit target that turns
// out unsuitable is an invalid action (spec §4.6), not a retry. Otherwise
// hosts are tried round-robin in ascending id order, skipping unsuitable
// ones.
//
// hosts is assumed sorted by ascending ID; the Datacenter maintains that
// ordering.
type TargetedRoundRobinPlacement struct {
	next int
}

// NewTargetedRoundRobinPlacement creates a placement policy starting its
// round-robin cursor at the first host.
func NewTargetedRoundRobinPlacement() *TargetedRoundRobinPlacement {
	return &TargetedRoundRobinPlacement{}
}

// SelectHost implements PlacementPolicy.
func (p *TargetedRoundRobinPlacement) SelectHost(vm *VM, hosts []*Host) (*Host, error) {
	if len(hosts) == 0 {
		return nil, fmt.Errorf("placement: no hosts available")
	}
	if vm.TargetHostID >= 0 {
		return p.selectTargeted(vm, hosts)
	}
	return p.selectRoundRobin(vm, hosts)
}

func (p *TargetedRoundRobinPlacement) selectTargeted(vm *VM, hosts []*Host) (*Host, error) {
	for _, h := range hosts {
		if h.ID != vm.TargetHostID {
			continue
		}
		if !h.Suitable(vm.Cores, vm.RAM, vm.BW, vm.Storage) {
			return nil, &NotSuitableError{HostID: h.ID, Reason: "target host lacks capacity"}
		}
		vm.TargetHostID = -1 // suffix consumed on success, per spec §4.3
		return h, nil
	}
	return nil, fmt.Errorf("placement: target host %d not found", vm.TargetHostID)
}

func (p *TargetedRoundRobinPlacement) selectRoundRobin(vm *VM, hosts []*Host) (*Host, error) {
	n := len(hosts)
	start := p.next % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		h := hosts[idx]
		if h.Suitable(vm.Cores, vm.RAM, vm.BW, vm.Storage) {
			p.next = (idx + 1) % n
			return h, nil
		}
	}
	return nil, &NotSuitableError{HostID: -1, Reason: "no host with sufficient capacity"}
}
