package cmd

import (
	"github.com/spf13/cobra"

	sim "github.com/cloudsim-rl/dcsim/sim"
)

const (
	defaultScaleUpUtilization   = 0.8
	defaultScaleDownUtilization = 0.3
)

var horizontalScaleCmd = &cobra.Command{
	Use:   "horizontal-scale",
	Short: "Run with a baseline policy that assigns to the least-loaded VM and scales the fleet on utilization thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := loadBundle()
		if err != nil {
			return err
		}
		scaleUp := defaultScaleUpUtilization
		if bundle.Driver.ScaleUpUtilizationThreshold != nil {
			scaleUp = *bundle.Driver.ScaleUpUtilizationThreshold
		}
		scaleDown := defaultScaleDownUtilization
		if bundle.Driver.ScaleDownUtilizationThreshold != nil {
			scaleDown = *bundle.Driver.ScaleDownUtilizationThreshold
		}

		return runBaseline("horizontal-scale", func(d *sim.Driver, obs *sim.Observation) sim.Action {
			running := d.RunningVMIDs()

			if obs.WaitingCloudletCount > 0 && len(running) > 0 {
				bestIdx, bestLoad := 0, d.VMLoad(running[0])
				for i, vmID := range running[1:] {
					if load := d.VMLoad(vmID); load < bestLoad {
						bestIdx, bestLoad = i+1, load
					}
				}
				return sim.Action{Type: sim.ActionAssign, TargetVMID: running[bestIdx], TargetHostID: -1}
			}

			avgUtil := d.AverageUtilization()
			if avgUtil >= scaleUp {
				// Target the most-free host rather than delegating to the
				// placement policy, so Config.ScaleUpOnUnsuitableVM's
				// fall-back-to-any-host behavior has a concrete target to
				// fall back from.
				return sim.Action{Type: sim.ActionCreateVM, VMTypeIndex: 0, TargetHostID: d.PreferredScaleUpHostID()}
			}
			if avgUtil <= scaleDown && len(running) > 1 {
				idleIdx, idleLoad := 0, d.VMLoad(running[0])
				for i, vmID := range running[1:] {
					if load := d.VMLoad(vmID); load < idleLoad {
						idleIdx, idleLoad = i+1, load
					}
				}
				if idleLoad == 0 {
					return sim.Action{Type: sim.ActionDestroyVM, TargetVMID: int64(idleIdx), TargetHostID: -1}
				}
			}
			return sim.Action{Type: sim.ActionNoop, TargetHostID: -1}
		})
	},
}
