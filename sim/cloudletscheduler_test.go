package sim

import "testing"

func newTestVM(id int64, cores int, mipsPerCore float64) *VM {
	vm := &VM{ID: id, Cores: cores, MIPSPerCore: mipsPerCore, State: VMRunning, TargetHostID: -1}
	vm.Scheduler = NewCloudletScheduler(vm)
	return vm
}

func TestCloudletScheduler_Submit_SpaceShares_WithinCapacity(t *testing.T) {
	// GIVEN a 4-core VM and two cloudlets each needing 2 cores
	vm := newTestVM(1, 4, 1000)
	eng := NewEngine(1)
	c1 := NewCloudlet(1, 2, 2000, 0, 0, 0)
	c2 := NewCloudlet(2, 2, 2000, 0, 0, 0)

	// WHEN both are submitted
	ok1 := vm.Scheduler.Submit(c1, 0, eng)
	ok2 := vm.Scheduler.Submit(c2, 0, eng)

	// THEN both admit directly to executing (4 cores fits 2+2), none waiting
	if !ok1 || !ok2 {
		t.Fatalf("Submit: got (%v, %v), want (true, true)", ok1, ok2)
	}
	if len(vm.Scheduler.Executing()) != 2 {
		t.Errorf("Executing count: got %d, want 2", len(vm.Scheduler.Executing()))
	}
	if len(vm.Scheduler.Waiting()) != 0 {
		t.Errorf("Waiting count: got %d, want 0", len(vm.Scheduler.Waiting()))
	}
}

func TestCloudletScheduler_Submit_QueuesWhenCoresExhausted(t *testing.T) {
	// GIVEN a 2-core VM with one 2-core cloudlet already executing
	vm := newTestVM(1, 2, 1000)
	eng := NewEngine(1)
	c1 := NewCloudlet(1, 2, 2000, 0, 0, 0)
	c2 := NewCloudlet(2, 2, 2000, 0, 0, 0)
	vm.Scheduler.Submit(c1, 0, eng)

	// WHEN a second cloudlet needing 2 cores is submitted
	vm.Scheduler.Submit(c2, 0, eng)

	// THEN it parks on the waiting list rather than executing
	if len(vm.Scheduler.Executing()) != 1 {
		t.Errorf("Executing count: got %d, want 1", len(vm.Scheduler.Executing()))
	}
	if len(vm.Scheduler.Waiting()) != 1 {
		t.Errorf("Waiting count: got %d, want 1", len(vm.Scheduler.Waiting()))
	}
}

func TestCloudletScheduler_Submit_RejectsWhenVMNotRunning(t *testing.T) {
	vm := newTestVM(1, 2, 1000)
	vm.State = VMStarting
	eng := NewEngine(1)
	c := NewCloudlet(1, 1, 1000, 0, 0, 0)

	if ok := vm.Scheduler.Submit(c, 0, eng); ok {
		t.Error("Submit on a non-Running VM should return false")
	}
}

func TestCloudletScheduler_HandleFinish_CreditsExactWork_AndAdmitsWaiting(t *testing.T) {
	// GIVEN a 2-core VM, one cloudlet executing (2000 MI at 1000 MIPS/core
	// x 2 cores = 2000 MI/s, so it should take exactly 1 tick) and a second
	// cloudlet of the same shape waiting
	vm := newTestVM(1, 2, 1000)
	eng := NewEngine(1)
	c1 := NewCloudlet(1, 2, 2000, 0, 0, 0)
	c2 := NewCloudlet(2, 2, 2000, 0, 0, 0)
	vm.Scheduler.Submit(c1, 0, eng)
	vm.Scheduler.Submit(c2, 0, eng)

	finished := []int64{}
	vm.Scheduler.SetOnFinish(func(c *Cloudlet, now int64) { finished = append(finished, c.ID) })
	// Route finish events to the scheduler, as the datacenter does.
	eng.On(TagCloudletFinish, func(ev Event) {
		vm.Scheduler.HandleFinish(ev.(*CloudletFinishEvent).Cloudlet, eng.Clock, eng)
	})

	// WHEN the engine runs to completion
	eng.RunUntil(10)

	// THEN both cloudlets finish exactly, in order, and none remain queued
	if len(finished) != 2 {
		t.Fatalf("finished count: got %d, want 2", len(finished))
	}
	if finished[0] != 1 || finished[1] != 2 {
		t.Errorf("finish order: got %v, want [1 2]", finished)
	}
	if c1.Status != StatusSuccess || c2.Status != StatusSuccess {
		t.Errorf("statuses: c1=%v c2=%v, want Success/Success", c1.Status, c2.Status)
	}
	if len(vm.Scheduler.Executing()) != 0 || len(vm.Scheduler.Waiting()) != 0 {
		t.Errorf("scheduler not drained: executing=%d waiting=%d", len(vm.Scheduler.Executing()), len(vm.Scheduler.Waiting()))
	}
}

func TestCloudletScheduler_Harvest_CreditsPartialProgress(t *testing.T) {
	// GIVEN a cloudlet that has executed for 1 of its 2 required ticks
	vm := newTestVM(1, 1, 1000)
	eng := NewEngine(1)
	c := NewCloudlet(1, 1, 2000, 0, 0, 0)
	vm.Scheduler.Submit(c, 0, eng)

	// WHEN the VM is harvested mid-flight
	harvested := vm.Scheduler.Harvest(1)

	// THEN the cloudlet is returned with partial credit and the scheduler
	// is emptied
	if len(harvested) != 1 || harvested[0] != c {
		t.Fatalf("Harvest: got %v, want [c]", harvested)
	}
	if c.FinishedLength != 1000 {
		t.Errorf("FinishedLength after 1 tick: got %f, want 1000", c.FinishedLength)
	}
	if len(vm.Scheduler.Executing()) != 0 {
		t.Errorf("Executing not cleared after Harvest: got %d", len(vm.Scheduler.Executing()))
	}
}

func TestCloudletScheduler_CPUUtilization(t *testing.T) {
	vm := newTestVM(1, 4, 1000)
	eng := NewEngine(1)
	c := NewCloudlet(1, 2, 10000, 0, 0, 0)
	vm.Scheduler.Submit(c, 0, eng)

	if got, want := vm.Scheduler.CPUUtilization(), 0.5; got != want {
		t.Errorf("CPUUtilization: got %f, want %f", got, want)
	}
}
