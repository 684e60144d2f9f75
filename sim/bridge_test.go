package sim

import "testing"

// newResetDriver builds a Driver over a tiny, deterministic CSV trace and
// resets it, for observation/reward assembly tests.
func newResetDriver(t *testing.T, csv string) *Driver {
	t.Helper()
	path := writeTempFile(t, "trace.csv", csv)
	cfg := DefaultConfig()
	cfg.CloudletTraceFile = path
	cfg.HostsCount = 2
	cfg.HostPEs = 4
	cfg.InitialSVMCount = 1
	cfg.InitialMVMCount = 0
	cfg.InitialLVMCount = 0
	d := NewDriver(cfg, nil)
	if _, _, err := d.Reset(1); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return d
}

func TestBuildObservation_PaddedToMaxPotentialVMs(t *testing.T) {
	d := newResetDriver(t, "1,0,1000,2\n")

	obs := BuildObservation(d)

	if len(obs.VMCPULoad) != d.maxPotentialVMs {
		t.Errorf("VMCPULoad length: got %d, want %d", len(obs.VMCPULoad), d.maxPotentialVMs)
	}
	if len(obs.VMTypeCode) != d.maxPotentialVMs {
		t.Errorf("VMTypeCode length: got %d, want %d", len(obs.VMTypeCode), d.maxPotentialVMs)
	}
	for i := obs.ActualVMCount; i < len(obs.VMHostMap); i++ {
		if obs.VMHostMap[i] != -1 {
			t.Errorf("unused VMHostMap slot %d: got %d, want -1", i, obs.VMHostMap[i])
		}
	}
	if obs.ActualHostCount != 2 {
		t.Errorf("ActualHostCount: got %d, want 2", obs.ActualHostCount)
	}
	if obs.ActualVMCount != 1 {
		t.Errorf("ActualVMCount: got %d, want 1 (one initial small VM)", obs.ActualVMCount)
	}
	if obs.VMTypeCode[0] != 1 {
		t.Errorf("VMTypeCode[0] (Small): got %d, want 1", obs.VMTypeCode[0])
	}
}

func TestBuildObservation_NextCloudletCoreDemandFromQueueHead(t *testing.T) {
	// GIVEN two cloudlets both already arrived (arrival 0), requiring 2
	// and 3 cores respectively
	d := newResetDriver(t, "1,0,1000,2\n2,0,1000,3\n")

	obs := BuildObservation(d)

	if obs.WaitingCloudletCount != 2 {
		t.Fatalf("WaitingCloudletCount: got %d, want 2", obs.WaitingCloudletCount)
	}
	if obs.NextCloudletCoreDemand != 2 {
		t.Errorf("NextCloudletCoreDemand (head of queue): got %d, want 2", obs.NextCloudletCoreDemand)
	}
}

func TestBuildInfraTree_LeadingCountsMatchDatacenter(t *testing.T) {
	d := newResetDriver(t, "1,0,1000,2\n")

	tree := buildInfraTree(d.dc)

	if tree[0] != int64(d.dc.TotalCores()) {
		t.Errorf("tree[0] (total cores): got %d, want %d", tree[0], d.dc.TotalCores())
	}
	if tree[1] != int64(len(d.dc.Hosts())) {
		t.Errorf("tree[1] (host count): got %d, want %d", tree[1], len(d.dc.Hosts()))
	}
}

func TestComputeReward_NoWaitTimesNoPenalty(t *testing.T) {
	d := newResetDriver(t, "1,0,1000,2\n")

	r := ComputeReward(d, nil, false)

	if r.WaitTimePenalty != 0 {
		t.Errorf("WaitTimePenalty with no finishes: got %f, want 0", r.WaitTimePenalty)
	}
	if r.InvalidActionPenalty != 0 {
		t.Errorf("InvalidActionPenalty when action was valid: got %f, want 0", r.InvalidActionPenalty)
	}
}

func TestComputeReward_InvalidActionIsPenalized(t *testing.T) {
	d := newResetDriver(t, "1,0,1000,2\n")

	r := ComputeReward(d, nil, true)

	if r.InvalidActionPenalty >= 0 {
		t.Errorf("InvalidActionPenalty: got %f, want negative", r.InvalidActionPenalty)
	}
	if r.InvalidActionPenalty != -d.cfg.RewardInvalidActionCoef {
		t.Errorf("InvalidActionPenalty magnitude: got %f, want %f", r.InvalidActionPenalty, -d.cfg.RewardInvalidActionCoef)
	}
}

func TestComputeReward_WaitTimePenaltyGrowsWithWait(t *testing.T) {
	d := newResetDriver(t, "1,0,1000,2\n")

	small := ComputeReward(d, []int64{1}, false)
	large := ComputeReward(d, []int64{1000}, false)

	if small.WaitTimePenalty <= large.WaitTimePenalty {
		t.Errorf("expected a longer wait to produce a more negative penalty: short=%f long=%f", small.WaitTimePenalty, large.WaitTimePenalty)
	}
}

func TestComputeReward_CostPenaltyOnlyWhenEnabled(t *testing.T) {
	d := newResetDriver(t, "1,0,1000,2\n")

	off := ComputeReward(d, nil, false)
	if off.CostPenalty != 0 {
		t.Errorf("CostPenalty with feature disabled: got %f, want 0", off.CostPenalty)
	}

	d.cfg.CostPenaltyEnabled = true
	on := ComputeReward(d, nil, false)
	if on.CostPenalty >= 0 {
		t.Errorf("CostPenalty with feature enabled and VMs allocated: got %f, want negative", on.CostPenalty)
	}
}

func TestRewardComponents_TotalSumsAllTerms(t *testing.T) {
	r := RewardComponents{WaitTimePenalty: -1, UtilizationBalancePenalty: -2, QueuePenalty: -3, InvalidActionPenalty: -4, CostPenalty: -5}
	if got, want := r.Total(), -15.0; got != want {
		t.Errorf("Total: got %f, want %f", got, want)
	}
}
