// Config is the single strongly-typed configuration surface for a
// simulation run (spec §6/§9). Adapted from the teacher's flat
// Simulator-construction fields (sim/simulator.go), generalized into one
// struct validated before a run starts rather than scattered across
// constructor parameters.

package sim

import (
	"fmt"
	"math"
)

// WorkloadMode selects the trace format read at Reset.
type WorkloadMode string

const (
	WorkloadSWF WorkloadMode = "SWF"
	WorkloadCSV WorkloadMode = "CSV"
)

// Config holds every configuration option a caller can set via the
// bridge's configure(params) operation (spec §6).
type Config struct {
	HostsCount   int
	HostPEs      int
	HostPEMIPS   float64
	HostRAM      int64
	HostBW       int64
	HostStorage  int64

	SmallVMPEs     int
	SmallVMMIPS    float64
	SmallVMRAM     int64
	SmallVMBW      int64
	SmallVMStorage int64
	MediumVMMultiplier int
	LargeVMMultiplier  int

	InitialSVMCount int
	InitialMVMCount int
	InitialLVMCount int

	WorkloadMode                     WorkloadMode
	CloudletTraceFile                string
	WorkloadReaderMIPS               float64
	MaxCloudletsToCreateFromWorkload int
	SplitLargeCloudlets              bool
	MaxCloudletPEs                   int

	SimulationTimestep   int64
	MinTimeBetweenEvents int64
	VMStartupDelay       int64
	VMShutdownDelay      int64
	MaxEpisodeLength     int64

	RewardWaitTimeCoef    float64
	RewardUnutilizationCoef float64
	RewardCostCoef        float64
	RewardQueuePenaltyCoef float64
	RewardInvalidActionCoef float64

	// CostPenaltyEnabled gates the cost-oriented reward term (spec §4.6's
	// "cost-oriented variant"); resolves spec §9's open question on when
	// the cost penalty applies. Off by default.
	CostPenaltyEnabled bool

	// ScaleUpOnUnsuitableVM, when true, makes a Create-VM action triggered
	// by an unsuitable target host instead fall back to the placement
	// policy's round-robin search (resolves spec §9's horizontal-scale
	// open question). Off by default: an unsuitable explicit target is an
	// invalid action, matching §4.6's action-validity table literally.
	ScaleUpOnUnsuitableVM bool

	// MaxPotentialVMsOverride, if > 0, overrides the computed
	// ceil(1.1 * total_host_cores / small_vm_cores) bound used for
	// observation padding (spec §4.5).
	MaxPotentialVMsOverride int

	// IdleVMDestructionDelay is how many idle ticks (no executing or
	// waiting cloudlets) a running VM tolerates before the driver
	// auto-destroys it. Defaults to effectively infinite: VM lifetime is
	// the agent's sole responsibility (spec §4.4 "VM retention"); set a
	// finite value to exercise an automatic reclamation policy instead.
	IdleVMDestructionDelay int64
}

// DefaultConfig returns a Config with reasonable defaults for every field
// not meaningfully defaultable to zero.
func DefaultConfig() Config {
	return Config{
		HostsCount:  4,
		HostPEs:     16,
		HostPEMIPS:  10000,
		HostRAM:     65536,
		HostBW:      10000,
		HostStorage: 1_000_000,

		SmallVMPEs:         2,
		SmallVMMIPS:        10000,
		SmallVMRAM:         4096,
		SmallVMBW:          1000,
		SmallVMStorage:     10000,
		MediumVMMultiplier: 2,
		LargeVMMultiplier:  4,

		InitialSVMCount: 2,
		InitialMVMCount: 1,
		InitialLVMCount: 0,

		WorkloadMode:                     WorkloadCSV,
		WorkloadReaderMIPS:               1,
		MaxCloudletsToCreateFromWorkload: 0,
		SplitLargeCloudlets:              true,
		MaxCloudletPEs:                   4,

		SimulationTimestep:   100,
		MinTimeBetweenEvents: 1,
		VMStartupDelay:       50,
		VMShutdownDelay:      20,
		MaxEpisodeLength:     1000,

		RewardWaitTimeCoef:      1.0,
		RewardUnutilizationCoef: 1.0,
		RewardCostCoef:          0.1,
		RewardQueuePenaltyCoef:  1.0,
		RewardInvalidActionCoef: 1.0,

		CostPenaltyEnabled:    false,
		ScaleUpOnUnsuitableVM: false,

		IdleVMDestructionDelay: math.MaxInt64,
	}
}

// Validate fails fast on configuration errors (spec §7): unknown trace
// file, invalid workload_mode, non-positive MIPS. No simulation is
// started if this returns an error.
func (c Config) Validate() error {
	if c.HostsCount <= 0 {
		return fmt.Errorf("config: hosts_count must be positive, got %d", c.HostsCount)
	}
	if c.HostPEMIPS <= 0 {
		return fmt.Errorf("config: host_pe_mips must be positive, got %f", c.HostPEMIPS)
	}
	if c.SmallVMMIPS <= 0 {
		return fmt.Errorf("config: small_vm_mips must be positive, got %f", c.SmallVMMIPS)
	}
	if c.SmallVMPEs <= 0 {
		return fmt.Errorf("config: small_vm_pes must be positive, got %d", c.SmallVMPEs)
	}
	switch c.WorkloadMode {
	case WorkloadSWF, WorkloadCSV:
	default:
		return fmt.Errorf("config: invalid workload_mode %q, want SWF or CSV", c.WorkloadMode)
	}
	if c.CloudletTraceFile == "" {
		return fmt.Errorf("config: cloudlet_trace_file must be set")
	}
	if c.SimulationTimestep <= 0 {
		return fmt.Errorf("config: simulation_timestep must be positive, got %d", c.SimulationTimestep)
	}
	if c.MinTimeBetweenEvents <= 0 {
		return fmt.Errorf("config: min_time_between_events must be positive, got %d", c.MinTimeBetweenEvents)
	}
	if c.MaxEpisodeLength <= 0 {
		return fmt.Errorf("config: max_episode_length must be positive, got %d", c.MaxEpisodeLength)
	}
	return nil
}

// VMSizing derives the VMSizing used by VM construction from this config.
func (c Config) VMSizing() VMSizing {
	return VMSizing{
		SmallCores:   c.SmallVMPEs,
		SmallMIPS:    c.SmallVMMIPS,
		SmallRAM:     c.SmallVMRAM,
		SmallBW:      c.SmallVMBW,
		SmallStorage: c.SmallVMStorage,
		MultiplierM:  c.MediumVMMultiplier,
		MultiplierL:  c.LargeVMMultiplier,
	}
}
