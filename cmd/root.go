// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/cloudsim-rl/dcsim/sim"
)

var (
	hostsCount   int
	hostPEs      int
	hostPEMIPS   float64
	smallVMPEs   int
	smallVMMIPS  float64
	mediumVMMult int
	largeVMMult  int

	initialSVMs int
	initialMVMs int
	initialLVMs int

	workloadMode string
	traceFile    string
	splitLarge   bool
	maxCloudlets int

	simulationTimestep int64
	maxEpisodeLength   int64
	seed                int64
	logLevel            string

	policyBundlePath string
	outDir           string
)

var rootCmd = &cobra.Command{
	Use:   "dcsim",
	Short: "Discrete-event cloud datacenter simulator and RL control plane",
}

// Execute runs the root command, exiting the process with a non-zero
// status on any configuration or runtime error (spec §6 exit semantics).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&hostsCount, "hosts", 4, "Number of physical hosts in the datacenter")
	rootCmd.PersistentFlags().IntVar(&hostPEs, "host-pes", 16, "Cores per host")
	rootCmd.PersistentFlags().Float64Var(&hostPEMIPS, "host-pe-mips", 10000, "MIPS per host core")
	rootCmd.PersistentFlags().IntVar(&smallVMPEs, "small-vm-pes", 2, "Cores of a Small VM")
	rootCmd.PersistentFlags().Float64Var(&smallVMMIPS, "small-vm-mips", 10000, "MIPS per core of a Small VM")
	rootCmd.PersistentFlags().IntVar(&mediumVMMult, "medium-vm-multiplier", 2, "Medium VM size as a multiple of Small")
	rootCmd.PersistentFlags().IntVar(&largeVMMult, "large-vm-multiplier", 4, "Large VM size as a multiple of Small")

	rootCmd.PersistentFlags().IntVar(&initialSVMs, "initial-small-vms", 2, "Initial Small VM count")
	rootCmd.PersistentFlags().IntVar(&initialMVMs, "initial-medium-vms", 1, "Initial Medium VM count")
	rootCmd.PersistentFlags().IntVar(&initialLVMs, "initial-large-vms", 0, "Initial Large VM count")

	rootCmd.PersistentFlags().StringVar(&workloadMode, "workload-mode", "CSV", "Workload trace format: SWF or CSV")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace-file", "", "Path to the cloudlet workload trace (required)")
	rootCmd.PersistentFlags().BoolVar(&splitLarge, "split-large-cloudlets", true, "Split cloudlets wider than the max cloudlet PEs (default 4)")
	rootCmd.PersistentFlags().IntVar(&maxCloudlets, "max-cloudlets", 0, "Cap on cloudlets created from the trace (0 = unbounded)")

	rootCmd.PersistentFlags().Int64Var(&simulationTimestep, "timestep", 100, "Simulated ticks advanced per driver step")
	rootCmd.PersistentFlags().Int64Var(&maxEpisodeLength, "max-episode-length", 1000, "Step budget before truncation")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 1, "Simulation random seed")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")

	rootCmd.PersistentFlags().StringVar(&policyBundlePath, "policy-bundle", "", "Path to a YAML policy bundle (optional)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", ".", "Directory to write result CSVs into")

	rootCmd.AddCommand(randomCmd, roundRobinCmd, leastConnCmd, horizontalScaleCmd)
}

// buildConfig assembles a sim.Config from the shared flags, validated by
// the caller via Config.Validate before a run starts.
func buildConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.HostsCount = hostsCount
	cfg.HostPEs = hostPEs
	cfg.HostPEMIPS = hostPEMIPS
	cfg.SmallVMPEs = smallVMPEs
	cfg.SmallVMMIPS = smallVMMIPS
	cfg.MediumVMMultiplier = mediumVMMult
	cfg.LargeVMMultiplier = largeVMMult
	cfg.InitialSVMCount = initialSVMs
	cfg.InitialMVMCount = initialMVMs
	cfg.InitialLVMCount = initialLVMs
	cfg.WorkloadMode = sim.WorkloadMode(workloadMode)
	cfg.CloudletTraceFile = traceFile
	cfg.SplitLargeCloudlets = splitLarge
	cfg.MaxCloudletsToCreateFromWorkload = maxCloudlets
	cfg.SimulationTimestep = simulationTimestep
	cfg.MaxEpisodeLength = maxEpisodeLength
	return cfg
}

// loadBundle loads the policy bundle named by --policy-bundle, or an
// empty (all-default) bundle if unset.
func loadBundle() (*sim.PolicyBundle, error) {
	if policyBundlePath == "" {
		return &sim.PolicyBundle{}, nil
	}
	bundle, err := sim.LoadPolicyBundle(policyBundlePath)
	if err != nil {
		return nil, err
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}
