package cmd

import (
	"math/rand"

	"github.com/spf13/cobra"

	sim "github.com/cloudsim-rl/dcsim/sim"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Run with a baseline policy that assigns to a uniformly random running VM",
	RunE: func(cmd *cobra.Command, args []string) error {
		rng := rand.New(rand.NewSource(seed))
		return runBaseline("random", func(d *sim.Driver, obs *sim.Observation) sim.Action {
			if obs.WaitingCloudletCount == 0 {
				return sim.Action{Type: sim.ActionNoop, TargetHostID: -1}
			}
			running := d.RunningVMIDs()
			if len(running) == 0 {
				return sim.Action{Type: sim.ActionNoop, TargetHostID: -1}
			}
			vmID := running[rng.Intn(len(running))]
			return sim.Action{Type: sim.ActionAssign, TargetVMID: vmID, TargetHostID: -1}
		})
	},
}
