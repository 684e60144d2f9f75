package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible simulation run. Two runs
// with the same SimulationKey, configuration, and action sequence must
// produce bit-for-bit identical observations, rewards, and finish times
// (spec invariant: deterministic replay).
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemPlacement names the placement RNG stream for ForSubsystem.
	// The round-robin placement policy is deterministic and draws nothing
	// from it.
	SubsystemPlacement = "placement"
	// SubsystemWorkload names the workload RNG stream for ForSubsystem.
	// Split-piece ids come from the NextSplitCloudletID counter, not from
	// this stream.
	SubsystemWorkload = "workload"
)

// Context holds everything that would otherwise be global mutable state for
// a single simulation run: the monotonic VM id counter and a partitioned RNG.
// Keeping it per-run (rather than package-level) lets multiple simulations
// run concurrently (property-based tests, benchmark harnesses) without
// colliding, per the design note on global mutable state.
type Context struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
	nextVMID   int64
	nextCloudletSplitID int64
}

// NewContext creates a Context seeded by key.
func NewContext(key SimulationKey) *Context {
	return &Context{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same name always returns the same cached *rand.Rand.
func (c *Context) ForSubsystem(name string) *rand.Rand {
	if rng, ok := c.subsystems[name]; ok {
		return rng
	}
	seed := int64(c.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(seed))
	c.subsystems[name] = rng
	return rng
}

// NextVMID returns the next monotonically increasing VM id for this run.
func (c *Context) NextVMID() int64 {
	id := c.nextVMID
	c.nextVMID++
	return id
}

// NextSplitCloudletID returns an id from the range reserved for split
// cloudlet pieces, starting at originalMaxID+1_000_000 per spec §4.7.
func (c *Context) NextSplitCloudletID(originalMaxID int64) int64 {
	if c.nextCloudletSplitID == 0 {
		c.nextCloudletSplitID = originalMaxID + 1_000_000
	}
	id := c.nextCloudletSplitID
	c.nextCloudletSplitID++
	return id
}

// Key returns the SimulationKey used to create this Context.
func (c *Context) Key() SimulationKey {
	return c.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
