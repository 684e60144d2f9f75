// Implements the workload reader (SWF and CSV trace formats) and the
// oversize-cloudlet splitter, spec §4.7. Adapted from the teacher's
// generateWorkloadFromCSV (sim/workload_config.go): same open-read-
// validate-inject shape, generalized from per-request JSON token lists to
// per-job numeric cloudlet descriptors.

package sim

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// CloudletDescriptor is a parsed, not-yet-materialized workload record:
// one row of a trace file after format-specific extraction and
// lower-bound clamping, before conversion into a Cloudlet and before
// oversize splitting.
type CloudletDescriptor struct {
	JobID           int64
	ArrivalTime     int64
	Length          float64
	Cores           int
	SubmissionDelay int64
}

// ReadSWF parses a Standard Workload Format trace (whitespace-delimited,
// 18-field minimum). Jobs with Status == 0 (field 11) are skipped. Cores
// used is max(1, max(requested, actual)); length in million-instructions
// is max(1, runtime * referenceMIPS); submit time is max(0, value). If
// maxToCreate > 0, parsing stops after that many descriptors.
func ReadSWF(path string, referenceMIPS float64, maxToCreate int) ([]CloudletDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("workload: failed to open swf file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file; close error is not actionable

	var out []CloudletDescriptor
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 18 {
			continue
		}
		vals := make([]float64, 18)
		for i := 0; i < 18; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("workload: swf line %d field %d: %w", lineNo, i+1, err)
			}
			vals[i] = v
		}
		status := vals[10]
		if status == 0 {
			continue
		}
		jobID := int64(vals[0])
		submit := int64(math.Max(0, vals[1]))
		runtime := vals[3]
		allocated := vals[4]
		requested := vals[7]

		cores := int(math.Max(1, math.Max(requested, allocated)))
		length := math.Max(1, runtime*referenceMIPS)

		out = append(out, CloudletDescriptor{
			JobID:       jobID,
			ArrivalTime: submit,
			Length:      length,
			Cores:       cores,
		})
		if maxToCreate > 0 && len(out) >= maxToCreate {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("workload: error scanning swf file: %w", err)
	}
	return out, nil
}

// ReadCSV parses a CSV trace with columns job_id, arrival_time, mi,
// allocated_cores. The header row is skipped if its first field is
// non-numeric. All four fields are lower-bounded at their natural
// minimums (0 for arrival time, 1 for job id/mi/cores). If maxToCreate >
// 0, parsing stops after that many descriptors.
func ReadCSV(path string, maxToCreate int) ([]CloudletDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("workload: failed to open csv file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file; close error is not actionable

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var out []CloudletDescriptor
	rowNo := 0
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("workload: error reading csv at row %d: %w", rowNo, err)
		}
		rowNo++
		if len(record) < 4 {
			return nil, fmt.Errorf("workload: csv row %d has %d columns, expected at least 4", rowNo, len(record))
		}
		if first {
			first = false
			if _, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64); err != nil {
				continue // header row
			}
		}

		jobID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("workload: invalid job_id at row %d: %w", rowNo, err)
		}
		arrival, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("workload: invalid arrival_time at row %d: %w", rowNo, err)
		}
		mi, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("workload: invalid mi at row %d: %w", rowNo, err)
		}
		cores, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("workload: invalid allocated_cores at row %d: %w", rowNo, err)
		}

		out = append(out, CloudletDescriptor{
			JobID:       int64(math.Max(1, float64(jobID))),
			ArrivalTime: int64(math.Max(0, arrival)),
			Length:      math.Max(1, mi),
			Cores:       int(math.Max(1, float64(cores))),
		})
		if maxToCreate > 0 && len(out) >= maxToCreate {
			break
		}
	}
	return out, nil
}

// SplitOversize partitions any descriptor whose Cores exceeds
// maxCloudletPes into ceil(cores/max) pieces, each carrying
// pes_piece = min(remaining, max) cores and proportional length
// max(1, miPerOriginalPe * pes_piece). Pieces retain the original
// submission delay and draw new ids from ctx.NextSplitCloudletID, which
// starts at originalMaxID + 1,000,000 (spec §4.7).
func SplitOversize(descs []CloudletDescriptor, maxCloudletPes int, ctx *Context) []CloudletDescriptor {
	if maxCloudletPes <= 0 {
		return descs
	}
	var originalMaxID int64
	for _, d := range descs {
		if d.JobID > originalMaxID {
			originalMaxID = d.JobID
		}
	}

	out := make([]CloudletDescriptor, 0, len(descs))
	for _, d := range descs {
		if d.Cores <= maxCloudletPes {
			out = append(out, d)
			continue
		}
		miPerOriginalPe := d.Length / float64(d.Cores)
		remaining := d.Cores
		for remaining > 0 {
			piece := remaining
			if piece > maxCloudletPes {
				piece = maxCloudletPes
			}
			out = append(out, CloudletDescriptor{
				JobID:           ctx.NextSplitCloudletID(originalMaxID),
				ArrivalTime:     d.ArrivalTime,
				Length:          math.Max(1, miPerOriginalPe*float64(piece)),
				Cores:           piece,
				SubmissionDelay: d.SubmissionDelay,
			})
			remaining -= piece
		}
	}
	return out
}

// ToCloudlets materializes descriptors into Cloudlets, ready for
// Broker.Submit.
func ToCloudlets(descs []CloudletDescriptor) []*Cloudlet {
	out := make([]*Cloudlet, 0, len(descs))
	for _, d := range descs {
		c := NewCloudlet(d.JobID, d.Cores, d.Length, 0, 0, d.ArrivalTime)
		c.SubmissionDelay = d.SubmissionDelay
		out = append(out, c)
	}
	return out
}
