package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	sim "github.com/cloudsim-rl/dcsim/sim"
)

// writeResults writes one row per finished cloudlet and one row per
// destroyed VM into cloudlets.csv and vms.csv under dir, grounded on the
// teacher's open-write-row-per-record shape for CSV result artifacts.
func writeResults(dir string, d *sim.Driver) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("results: creating output dir: %w", err)
	}
	if err := writeCloudletsCSV(filepath.Join(dir, "cloudlets.csv"), d.FinishedCloudlets(), d.OriginalArrivalTime); err != nil {
		return err
	}
	if err := writeVMsCSV(filepath.Join(dir, "vms.csv"), d.DestroyedVMs()); err != nil {
		return err
	}
	return nil
}

// writeCloudletsCSV writes one row per cloudlet. originalArrival resolves a
// cloudlet's first-admission time from the broker's arrival map (spec §3),
// since a cloudlet displaced by a VM destruction has its Cloudlet.ArrivalTime
// field overwritten on reschedule and can no longer report true wait and
// turnaround time from that field alone.
func writeCloudletsCSV(path string, cloudlets []*sim.Cloudlet, originalArrival func(id int64) int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("results: creating %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // best-effort close on a file we just wrote

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"cloudlet_id", "vm_id", "host_id", "required_cores", "arrival_time", "exec_start_time", "finish_time", "wait_time", "turnaround_time", "status"}); err != nil {
		return err
	}
	for _, c := range cloudlets {
		arrival := originalArrival(c.ID)
		row := []string{
			strconv.FormatInt(c.ID, 10),
			strconv.FormatInt(c.VMID, 10),
			strconv.FormatInt(c.HostID, 10),
			strconv.Itoa(c.RequiredCores),
			strconv.FormatInt(arrival, 10),
			strconv.FormatInt(c.ExecStartTime, 10),
			strconv.FormatInt(c.FinishTime, 10),
			strconv.FormatInt(c.ExecStartTime-arrival, 10),
			strconv.FormatInt(c.FinishTime-arrival, 10),
			c.Status.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func writeVMsCSV(path string, vms []*sim.VM) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("results: creating %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // best-effort close on a file we just wrote

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"vm_id", "type", "host_id", "cores", "mean_utilization", "utilization_samples"}); err != nil {
		return err
	}
	for _, vm := range vms {
		row := []string{
			strconv.FormatInt(vm.ID, 10),
			vm.Type.String(),
			strconv.FormatInt(vm.HostID, 10),
			strconv.Itoa(vm.Cores),
			strconv.FormatFloat(meanUtilization(vm), 'f', 4, 64),
			strconv.Itoa(len(vm.History)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// meanUtilization averages a VM's recorded CPU-utilization history, 0 if
// it never ran a step while installed.
func meanUtilization(vm *sim.VM) float64 {
	if len(vm.History) == 0 {
		return 0
	}
	var sum float64
	for _, s := range vm.History {
		sum += s.CPUUtilization
	}
	return sum / float64(len(vm.History))
}
