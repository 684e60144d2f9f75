package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	sim "github.com/cloudsim-rl/dcsim/sim"
)

// decideFunc picks the next action given the current observation and
// driver state. Returning Action{Type: sim.ActionNoop} is always valid
// when the wait queue is empty.
type decideFunc func(d *sim.Driver, obs *sim.Observation) sim.Action

// runBaseline wires up a Driver from the shared flags, drives it to
// termination or truncation using decide, then prints and persists
// results. Grounded on the teacher's runCmd.Run (cmd/root.go): parse log
// level, construct, run to completion, print metrics.
func runBaseline(name string, decide decideFunc) error {
	setLogLevel()

	cfg := buildConfig()
	if traceFile == "" {
		return fmt.Errorf("%s: --trace-file is required", name)
	}
	bundle, err := loadBundle()
	if err != nil {
		return err
	}

	driver := sim.NewDriver(cfg, bundle)
	obs, _, err := driver.Reset(seed)
	if err != nil {
		return fmt.Errorf("%s: reset failed: %w", name, err)
	}

	logrus.Infof("%s: starting run (hosts=%d, small_vms=%d, medium_vms=%d, large_vms=%d)",
		name, cfg.HostsCount, cfg.InitialSVMCount, cfg.InitialMVMCount, cfg.InitialLVMCount)

	for {
		action := decide(driver, obs)
		nextObs, _, terminated, truncated, _ := driver.Step(action)
		obs = nextObs
		if terminated || truncated {
			break
		}
	}

	driver.Metrics().Print(driver.Clock())
	if err := writeResults(outDir, driver); err != nil {
		return fmt.Errorf("%s: writing results: %w", name, err)
	}
	logrus.Infof("%s: results written to %s", name, outDir)
	return nil
}
