package sim

import "testing"

func testSizing() VMSizing {
	return VMSizing{SmallCores: 2, SmallMIPS: 1000, SmallRAM: 100, SmallBW: 100, SmallStorage: 100, MultiplierM: 2, MultiplierL: 4}
}

func TestDatacenter_CreateVM_LifecycleTransitions(t *testing.T) {
	// GIVEN a datacenter with one host and a startup delay
	eng := NewEngine(1)
	hosts := []*Host{NewHost(0, 8, 1000, 1000, 1000, 1000)}
	dc := NewDatacenter(eng, hosts, NewTargetedRoundRobinPlacement())

	vm, err := dc.CreateVM(1, VMSmall, testSizing(), 5, 3, -1)
	if err != nil {
		t.Fatalf("CreateVM: %v", err)
	}
	if vm.State != VMRequested {
		t.Fatalf("initial state: got %v, want Requested", vm.State)
	}

	// WHEN the engine runs past the scheduled create tick but before startup
	// completes
	eng.RunUntil(eng.Clock)
	if vm.State != VMStarting {
		t.Errorf("state right after create event: got %v, want Starting", vm.State)
	}

	// THEN it becomes Running only once startupDelay has elapsed
	eng.RunUntil(4)
	if vm.State != VMStarting {
		t.Errorf("state before startup delay elapses: got %v, want Starting", vm.State)
	}
	eng.RunUntil(5)
	if vm.State != VMRunning {
		t.Errorf("state after startup delay elapses: got %v, want Running", vm.State)
	}
}

func TestDatacenter_CreateVM_UnsuitablePropagatesError_NoVMCreated(t *testing.T) {
	// GIVEN a host too small for the requested VM
	eng := NewEngine(1)
	hosts := []*Host{NewHost(0, 1, 1000, 1000, 1000, 1000)}
	dc := NewDatacenter(eng, hosts, NewTargetedRoundRobinPlacement())

	vm, err := dc.CreateVM(1, VMSmall, testSizing(), 0, 0, -1)

	if err == nil {
		t.Fatal("expected placement failure, got none")
	}
	if vm != nil {
		t.Errorf("expected nil vm on failure, got %v", vm)
	}
	if len(dc.VMs()) != 0 {
		t.Errorf("VM registry after failed create: got %d entries, want 0", len(dc.VMs()))
	}
	if dc.AllocatedCores() != 0 {
		t.Errorf("allocated cores after failed create: got %d, want 0", dc.AllocatedCores())
	}
}

func TestDatacenter_DestroyVM_ReleasesHostCapacity(t *testing.T) {
	// GIVEN a running VM occupying host capacity
	eng := NewEngine(1)
	hosts := []*Host{NewHost(0, 8, 1000, 1000, 1000, 1000)}
	dc := NewDatacenter(eng, hosts, NewTargetedRoundRobinPlacement())
	vm, _ := dc.CreateVM(1, VMSmall, testSizing(), 0, 2, -1)
	eng.RunUntil(0)
	if vm.State != VMRunning {
		t.Fatalf("setup: vm state: got %v, want Running", vm.State)
	}
	if dc.AllocatedCores() != 2 {
		t.Fatalf("setup: allocated cores: got %d, want 2", dc.AllocatedCores())
	}

	// WHEN the VM is destroyed and the shutdown delay elapses
	if err := dc.DestroyVM(vm.ID); err != nil {
		t.Fatalf("DestroyVM: %v", err)
	}
	eng.RunUntil(eng.Clock)
	if vm.State != VMShuttingDown {
		t.Errorf("state right after destroy event: got %v, want ShuttingDown", vm.State)
	}
	eng.RunUntil(eng.Clock + 2)

	// THEN the VM is gone and its host capacity is returned
	if vm.State != VMDestroyed {
		t.Errorf("final state: got %v, want Destroyed", vm.State)
	}
	if _, ok := dc.VMs()[vm.ID]; ok {
		t.Error("destroyed VM still present in registry")
	}
	if dc.AllocatedCores() != 0 {
		t.Errorf("allocated cores after destroy: got %d, want 0", dc.AllocatedCores())
	}
	if hosts[0].FreeCores() != 8 {
		t.Errorf("host free cores after destroy: got %d, want 8", hosts[0].FreeCores())
	}
}

func TestDatacenter_DestroyVM_UnknownOrNotRunning(t *testing.T) {
	eng := NewEngine(1)
	hosts := []*Host{NewHost(0, 8, 1000, 1000, 1000, 1000)}
	dc := NewDatacenter(eng, hosts, NewTargetedRoundRobinPlacement())

	if err := dc.DestroyVM(999); err == nil {
		t.Error("DestroyVM on unknown vm should fail")
	}

	vm, _ := dc.CreateVM(1, VMSmall, testSizing(), 10, 0, -1)
	// vm is still Requested/Starting, not Running
	if err := dc.DestroyVM(vm.ID); err == nil {
		t.Error("DestroyVM on a non-Running vm should fail")
	}
}

func TestDatacenter_HandleVMDestroyed_StaleEvent_IsNoop(t *testing.T) {
	// GIVEN a destroyed event for a vm id that no longer exists in the
	// registry (already removed by an earlier destruction)
	eng := NewEngine(1)
	hosts := []*Host{NewHost(0, 8, 1000, 1000, 1000, 1000)}
	dc := NewDatacenter(eng, hosts, NewTargetedRoundRobinPlacement())

	called := false
	dc.SetOnVMDestroyed(func(vm *VM, harvested []*Cloudlet) { called = true })

	// WHEN a VMDestroyedEvent fires for an id never created
	eng.Schedule(NewVMDestroyedEvent(eng.Clock, 12345))
	eng.RunUntil(eng.Clock)

	// THEN it is silently ignored
	if called {
		t.Error("onVMDestroyed fired for an unknown/stale vm id")
	}
}

func TestDatacenter_CreateVM_TotalCores(t *testing.T) {
	eng := NewEngine(1)
	hosts := []*Host{NewHost(0, 4, 1000, 1000, 1000, 1000), NewHost(1, 8, 1000, 1000, 1000, 1000)}
	dc := NewDatacenter(eng, hosts, NewTargetedRoundRobinPlacement())

	if got, want := dc.TotalCores(), 12; got != want {
		t.Errorf("TotalCores: got %d, want %d", got, want)
	}
}
