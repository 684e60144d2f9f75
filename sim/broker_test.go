package sim

import "testing"

func newTestDatacenter(cores int) (*Engine, *Datacenter) {
	eng := NewEngine(1)
	hosts := []*Host{NewHost(0, cores, 1000, 65536, 1000, 100000)}
	dc := NewDatacenter(eng, hosts, NewTargetedRoundRobinPlacement())
	return eng, dc
}

func TestBroker_AssignNextToVM_EmptyQueue(t *testing.T) {
	eng, dc := newTestDatacenter(4)
	b := NewBroker(eng, dc)

	ok, err := b.AssignNextToVM(0)

	if ok {
		t.Error("AssignNextToVM on empty queue should return false")
	}
	if _, isEmpty := err.(*ErrEmptyQueue); !isEmpty {
		t.Errorf("error type: got %T, want *ErrEmptyQueue", err)
	}
}

func TestBroker_AssignNextToVM_UnknownVM_RequeuesAtHead(t *testing.T) {
	// GIVEN a cloudlet has arrived and is waiting
	eng, dc := newTestDatacenter(4)
	b := NewBroker(eng, dc)
	c := NewCloudlet(1, 1, 1000, 0, 0, 0)
	b.Submit(c)
	eng.RunUntil(0)
	if b.WaitQueueLen() != 1 {
		t.Fatalf("setup: wait queue len: got %d, want 1", b.WaitQueueLen())
	}

	// WHEN dispatch targets a VM that does not exist
	ok, err := b.AssignNextToVM(999)

	// THEN the dispatch fails and the cloudlet is still in the queue
	// (conservation: never lost on rejection)
	if ok {
		t.Error("AssignNextToVM to unknown vm should fail")
	}
	if _, isUnknown := err.(*ErrUnknownVM); !isUnknown {
		t.Errorf("error type: got %T, want *ErrUnknownVM", err)
	}
	if b.WaitQueueLen() != 1 {
		t.Errorf("wait queue len after rejection: got %d, want 1 (conservation)", b.WaitQueueLen())
	}
}

func TestBroker_AssignNextToVM_Unsuitable_RequeuesAtHead(t *testing.T) {
	// GIVEN a VM with only 1 free core and a cloudlet requiring 2
	eng, dc := newTestDatacenter(4)
	b := NewBroker(eng, dc)
	vm, err := dc.CreateVM(dc.eng.Clock, VMSmall, VMSizing{SmallCores: 1, SmallMIPS: 1000, SmallRAM: 1, SmallBW: 1, SmallStorage: 1}, 0, 0, -1)
	if err != nil {
		t.Fatalf("CreateVM: %v", err)
	}
	eng.RunUntil(0)

	c := NewCloudlet(1, 2, 1000, 0, 0, 0)
	b.Submit(c)
	eng.RunUntil(0)

	// WHEN dispatch targets that VM
	ok, err := b.AssignNextToVM(vm.ID)

	// THEN it is rejected as unsuitable and requeued, not lost
	if ok {
		t.Error("AssignNextToVM to an undersized vm should fail")
	}
	if _, isUnsuitable := err.(*ErrUnsuitable); !isUnsuitable {
		t.Errorf("error type: got %T, want *ErrUnsuitable", err)
	}
	if b.WaitQueueLen() != 1 {
		t.Errorf("wait queue len after rejection: got %d, want 1", b.WaitQueueLen())
	}
}

func TestBroker_AssignNextToVM_Success_SchedulesSubmit(t *testing.T) {
	eng, dc := newTestDatacenter(4)
	b := NewBroker(eng, dc)
	vm, err := dc.CreateVM(0, VMSmall, VMSizing{SmallCores: 2, SmallMIPS: 1000, SmallRAM: 1, SmallBW: 1, SmallStorage: 1}, 0, 0, -1)
	if err != nil {
		t.Fatalf("CreateVM: %v", err)
	}
	eng.RunUntil(0)

	c := NewCloudlet(1, 1, 1000, 0, 0, 0)
	b.Submit(c)
	eng.RunUntil(0)

	ok, err := b.AssignNextToVM(vm.ID)
	if !ok || err != nil {
		t.Fatalf("AssignNextToVM: got (%v, %v), want (true, nil)", ok, err)
	}
	if b.WaitQueueLen() != 0 {
		t.Errorf("wait queue len after successful dispatch: got %d, want 0", b.WaitQueueLen())
	}
	if b.SubmittedCount() != 1 {
		t.Errorf("submitted count: got %d, want 1", b.SubmittedCount())
	}

	eng.RunUntil(eng.Clock + 10)
	if c.Status != StatusSuccess {
		t.Errorf("cloudlet status after run: got %v, want Success", c.Status)
	}
}

func TestBroker_HandleVMDestroyed_ReschedulesInFlightCloudlet(t *testing.T) {
	// GIVEN a VM running a cloudlet that is nowhere near finished
	eng, dc := newTestDatacenter(4)
	b := NewBroker(eng, dc)
	vm, _ := dc.CreateVM(0, VMSmall, VMSizing{SmallCores: 1, SmallMIPS: 1, SmallRAM: 1, SmallBW: 1, SmallStorage: 1}, 0, 0, -1)
	eng.RunUntil(0)

	c := NewCloudlet(1, 1, 1_000_000, 0, 0, 0)
	b.Submit(c)
	eng.RunUntil(0)
	b.AssignNextToVM(vm.ID)
	eng.RunUntil(eng.Clock)

	// WHEN the VM is destroyed mid-execution
	if err := dc.DestroyVM(vm.ID); err != nil {
		t.Fatalf("DestroyVM: %v", err)
	}
	eng.RunUntil(eng.Clock + 1000)

	// THEN the cloudlet is back in the wait queue rather than lost
	if b.WaitQueueLen() != 1 {
		t.Errorf("wait queue len after VM destruction: got %d, want 1 (conservation)", b.WaitQueueLen())
	}
	if c.Status != StatusWaiting {
		t.Errorf("cloudlet status after VM destruction: got %v, want Waiting", c.Status)
	}
}

func TestBroker_OriginalArrivalTime_SurvivesVMDestructionReschedule(t *testing.T) {
	// GIVEN a cloudlet submitted at time 0, assigned, then displaced by a
	// VM destruction well after its original arrival
	eng, dc := newTestDatacenter(4)
	b := NewBroker(eng, dc)
	vm, _ := dc.CreateVM(0, VMSmall, VMSizing{SmallCores: 1, SmallMIPS: 1, SmallRAM: 1, SmallBW: 1, SmallStorage: 1}, 0, 0, -1)
	eng.RunUntil(0)

	c := NewCloudlet(1, 1, 1_000_000, 0, 0, 0)
	b.Submit(c)
	eng.RunUntil(0)
	b.AssignNextToVM(vm.ID)
	eng.RunUntil(eng.Clock + 10)

	if err := dc.DestroyVM(vm.ID); err != nil {
		t.Fatalf("DestroyVM: %v", err)
	}
	eng.RunUntil(eng.Clock + 1000)

	// WHEN the cloudlet is rescheduled (Cloudlet.ArrivalTime is now
	// overwritten to the reschedule time, not 0)
	if c.ArrivalTime == 0 {
		t.Fatalf("setup: expected ResetForReschedule to move ArrivalTime off 0, got %d", c.ArrivalTime)
	}

	// THEN the broker's arrival map still reports the true original
	// arrival time (spec §3's workload arrival map)
	if got := b.OriginalArrivalTime(c.ID); got != 0 {
		t.Errorf("OriginalArrivalTime after reschedule: got %d, want 0", got)
	}
}

func TestBroker_ArrivedCount_NotDoubleCountedOnReschedule(t *testing.T) {
	// GIVEN a cloudlet that arrives, is assigned, then bounced back by a
	// VM destruction (re-triggering a CloudletArrivalEvent for the same
	// cloudlet id)
	eng, dc := newTestDatacenter(4)
	b := NewBroker(eng, dc)
	vm, _ := dc.CreateVM(0, VMSmall, VMSizing{SmallCores: 1, SmallMIPS: 1, SmallRAM: 1, SmallBW: 1, SmallStorage: 1}, 0, 0, -1)
	eng.RunUntil(0)

	c := NewCloudlet(1, 1, 1_000_000, 0, 0, 0)
	b.Submit(c)
	eng.RunUntil(0)
	if b.ArrivedCount() != 1 {
		t.Fatalf("setup: arrived count after first admission: got %d, want 1", b.ArrivedCount())
	}
	b.AssignNextToVM(vm.ID)
	eng.RunUntil(eng.Clock)

	// WHEN the VM is destroyed, forcing the same cloudlet through a second
	// CloudletArrivalEvent
	if err := dc.DestroyVM(vm.ID); err != nil {
		t.Fatalf("DestroyVM: %v", err)
	}
	eng.RunUntil(eng.Clock + 1000)

	// THEN the distinct-arrival count is still 1, not 2
	if b.ArrivedCount() != 1 {
		t.Errorf("arrived count after reschedule: got %d, want 1 (same cloudlet, not a new arrival)", b.ArrivedCount())
	}
}
