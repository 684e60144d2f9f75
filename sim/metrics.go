// Tracks simulation-wide aggregate statistics over Cloudlets, VMs, and
// Hosts for final reporting and the baseline drivers' result artifacts.
// Grounded on the teacher's Metrics struct (sim/metrics.go): same
// accumulate-then-Print shape, generalized from per-request LLM-inference
// counters (TTFT/TPOT/KV blocks) to cloudlet turnaround/wait statistics.

package sim

import "fmt"

// Metrics aggregates statistics about a completed (or in-progress) run.
type Metrics struct {
	CompletedCloudlets int
	FailedCloudlets    int

	TotalWaitTime       int64 // sum of (exec_start - arrival) over completions
	TotalTurnaroundTime int64 // sum of (finish - arrival) over completions

	VMsCreated   int
	VMsDestroyed int
	PeakVMCount  int
}

// RecordFinish folds a completed cloudlet into the running totals.
// originalArrival is the cloudlet's first-admission time from the broker's
// arrival map (spec §3), not its possibly-reset Cloudlet.ArrivalTime field,
// so a cloudlet displaced by a VM destruction still reports wait/turnaround
// measured from its true arrival.
func (m *Metrics) RecordFinish(c *Cloudlet, originalArrival int64) {
	switch c.Status {
	case StatusSuccess:
		m.CompletedCloudlets++
		m.TotalWaitTime += c.ExecStartTime - originalArrival
		m.TotalTurnaroundTime += c.FinishTime - originalArrival
	case StatusFailed, StatusCancelled:
		m.FailedCloudlets++
	}
}

// RecordVMCreated/RecordVMDestroyed track fleet size for PeakVMCount.
func (m *Metrics) RecordVMCreated(currentVMCount int) {
	m.VMsCreated++
	if currentVMCount > m.PeakVMCount {
		m.PeakVMCount = currentVMCount
	}
}

func (m *Metrics) RecordVMDestroyed(vm *VM) {
	m.VMsDestroyed++
}

// AvgWaitTime and AvgTurnaroundTime return 0 when no cloudlets have
// completed, rather than dividing by zero.
func (m *Metrics) AvgWaitTime() float64 {
	if m.CompletedCloudlets == 0 {
		return 0
	}
	return float64(m.TotalWaitTime) / float64(m.CompletedCloudlets)
}

func (m *Metrics) AvgTurnaroundTime() float64 {
	if m.CompletedCloudlets == 0 {
		return 0
	}
	return float64(m.TotalTurnaroundTime) / float64(m.CompletedCloudlets)
}

// Print displays aggregated metrics at the end of a run.
func (m *Metrics) Print(clock int64) {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Completed Cloudlets  : %d\n", m.CompletedCloudlets)
	fmt.Printf("Failed Cloudlets     : %d\n", m.FailedCloudlets)
	fmt.Printf("VMs Created/Destroyed: %d/%d (peak %d)\n", m.VMsCreated, m.VMsDestroyed, m.PeakVMCount)
	if m.CompletedCloudlets > 0 {
		fmt.Printf("Average Wait Time    : %.2f ticks\n", m.AvgWaitTime())
		fmt.Printf("Average Turnaround   : %.2f ticks\n", m.AvgTurnaroundTime())
	}
	fmt.Printf("Final Clock          : %d\n", clock)
}
