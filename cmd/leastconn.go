package cmd

import (
	"github.com/spf13/cobra"

	sim "github.com/cloudsim-rl/dcsim/sim"
)

var leastConnCmd = &cobra.Command{
	Use:   "least-connections",
	Short: "Run with a baseline policy that assigns to the running VM with the fewest bound cloudlets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBaseline("least-connections", func(d *sim.Driver, obs *sim.Observation) sim.Action {
			if obs.WaitingCloudletCount == 0 {
				return sim.Action{Type: sim.ActionNoop, TargetHostID: -1}
			}
			running := d.RunningVMIDs()
			if len(running) == 0 {
				return sim.Action{Type: sim.ActionNoop, TargetHostID: -1}
			}
			best := running[0]
			bestLoad := d.VMLoad(best)
			for _, vmID := range running[1:] {
				if load := d.VMLoad(vmID); load < bestLoad {
					best, bestLoad = vmID, load
				}
			}
			return sim.Action{Type: sim.ActionAssign, TargetVMID: best, TargetHostID: -1}
		})
	},
}
