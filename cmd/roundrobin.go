package cmd

import (
	"github.com/spf13/cobra"

	sim "github.com/cloudsim-rl/dcsim/sim"
)

var roundRobinCmd = &cobra.Command{
	Use:   "round-robin",
	Short: "Run with a baseline policy that assigns in round-robin order over running VMs",
	RunE: func(cmd *cobra.Command, args []string) error {
		next := 0
		return runBaseline("round-robin", func(d *sim.Driver, obs *sim.Observation) sim.Action {
			if obs.WaitingCloudletCount == 0 {
				return sim.Action{Type: sim.ActionNoop, TargetHostID: -1}
			}
			running := d.RunningVMIDs()
			if len(running) == 0 {
				return sim.Action{Type: sim.ActionNoop, TargetHostID: -1}
			}
			vmID := running[next%len(running)]
			next++
			return sim.Action{Type: sim.ActionAssign, TargetVMID: vmID, TargetHostID: -1}
		})
	},
}
