package sim

// VMType is the size tag of a VM: derived sizes are multiples of Small
// (spec §3: Medium = multiplier_M x Small, Large = multiplier_L x Small).
type VMType int

const (
	VMSmall VMType = iota
	VMMedium
	VMLarge
)

func (t VMType) String() string {
	switch t {
	case VMSmall:
		return "S"
	case VMMedium:
		return "M"
	case VMLarge:
		return "L"
	default:
		return "?"
	}
}

// VMState is the VM lifecycle: Requested -> Starting -> Running ->
// ShuttingDown -> Destroyed (spec §3).
type VMState int

const (
	VMRequested VMState = iota
	VMStarting
	VMRunning
	VMShuttingDown
	VMDestroyed
)

func (s VMState) String() string {
	switch s {
	case VMRequested:
		return "Requested"
	case VMStarting:
		return "Starting"
	case VMRunning:
		return "Running"
	case VMShuttingDown:
		return "ShuttingDown"
	case VMDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// VMUtilSample is one entry in a VM's utilization history.
type VMUtilSample struct {
	Time        int64
	CPUUtilization float64
}

// VM is a logical compute unit placed on exactly one Host, running
// cloudlets through its own space-shared scheduler (spec §3).
type VM struct {
	ID     int64
	Type   VMType
	HostID int64 // -1 until placed

	Cores       int
	MIPSPerCore float64
	RAM         int64
	BW          int64
	Storage     int64

	StartupDelay  int64
	ShutdownDelay int64

	State     VMState
	Scheduler *CloudletScheduler

	History []VMUtilSample

	// TargetHostID, when >= 0, is the agent-specified placement hint
	// (spec §4.3 "TYPE-hostID" targeting suffix). The placement policy
	// clears it once the targeted host accepts the VM; a failed targeted
	// placement leaves it set.
	TargetHostID int64
}

// VMSizing groups the Small-VM base dimensions and the Medium/Large
// multipliers used to derive the other two sizes (spec §3).
type VMSizing struct {
	SmallCores   int
	SmallMIPS    float64
	SmallRAM     int64
	SmallBW      int64
	SmallStorage int64
	MultiplierM  int
	MultiplierL  int
}

// Dimensions returns the cores/mips/ram/bw/storage for a given VMType under
// this sizing scheme.
func (s VMSizing) Dimensions(t VMType) (cores int, mips float64, ram, bw, storage int64) {
	mult := 1
	switch t {
	case VMMedium:
		mult = s.MultiplierM
	case VMLarge:
		mult = s.MultiplierL
	}
	return s.SmallCores * mult, s.SmallMIPS, s.SmallRAM * int64(mult), s.SmallBW * int64(mult), s.SmallStorage * int64(mult)
}

// NewVM creates a VM of the given type and sizing, in the Requested state,
// unplaced (HostID == -1), with no targeting hint.
func NewVM(id int64, t VMType, sizing VMSizing, startupDelay, shutdownDelay int64) *VM {
	cores, mips, ram, bw, storage := sizing.Dimensions(t)
	vm := &VM{
		ID:            id,
		Type:          t,
		HostID:        -1,
		Cores:         cores,
		MIPSPerCore:   mips,
		RAM:           ram,
		BW:            bw,
		Storage:       storage,
		StartupDelay:  startupDelay,
		ShutdownDelay: shutdownDelay,
		State:         VMRequested,
		TargetHostID:  -1,
	}
	vm.Scheduler = NewCloudletScheduler(vm)
	return vm
}

// TotalMIPS is this VM's aggregate processing capacity.
func (vm *VM) TotalMIPS() float64 {
	return float64(vm.Cores) * vm.MIPSPerCore
}

// RecordUtilization appends a utilization sample.
func (vm *VM) RecordUtilization(time int64, cpuUtil float64) {
	vm.History = append(vm.History, VMUtilSample{Time: time, CPUUtilization: cpuUtil})
}

// CurrentUtilization returns this VM's live CPU utilization (fraction of
// cores currently occupied by executing cloudlets).
func (vm *VM) CurrentUtilization() float64 {
	if vm.Scheduler == nil {
		return 0
	}
	return vm.Scheduler.CPUUtilization()
}
