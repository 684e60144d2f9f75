// Defines the Cloudlet struct: a unit of work dispatched onto a VM's
// per-core scheduler. Tracks arrival/submission/execution timestamps and
// finished-length-so-far so that VM destruction can credit partial progress.

package sim

// CloudletStatus is the lifecycle state of a Cloudlet.
type CloudletStatus int

const (
	// StatusWaiting: arrived (or re-queued after VM destruction) but not
	// bound to any VM.
	StatusWaiting CloudletStatus = iota
	// StatusInExec: bound to a VM and actively consuming cores, or parked
	// on that VM's scheduler waiting list for a free core.
	StatusInExec
	// StatusSuccess: finished_length == length.
	StatusSuccess
	// StatusFailed: terminated abnormally (reserved for future use; the
	// core never marks a cloudlet Failed on its own).
	StatusFailed
	// StatusCancelled: removed from the system before completion (reserved
	// for future use; the core never cancels a cloudlet on its own).
	StatusCancelled
)

func (s CloudletStatus) String() string {
	switch s {
	case StatusWaiting:
		return "Waiting"
	case StatusInExec:
		return "InExec"
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Cloudlet is a unit of work: a core requirement, a length in million
// instructions, and file sizes, moving through Waiting -> InExec -> Success.
type Cloudlet struct {
	ID int64

	RequiredCores int
	Length        float64 // million instructions to run; reset to RemainingLength on reschedule
	OriginalLength float64 // length at creation, for work-conservation checks
	FileSizeIn    int64
	FileSizeOut   int64

	ArrivalTime     int64 // absolute sim time the cloudlet becomes visible
	SubmissionDelay int64 // arrival - clock at the moment it was queued

	Status CloudletStatus
	VMID   int64 // -1 when unbound
	HostID int64 // -1 when unbound; set when VMID's host is known

	ExecStartTime  int64
	WaitStartTime  int64
	FinishTime     int64
	FinishedLength float64 // work executed so far, credited across re-dispatch
}

// NewCloudlet creates a Cloudlet in the Waiting state, unbound.
func NewCloudlet(id int64, requiredCores int, length float64, fileSizeIn, fileSizeOut, arrivalTime int64) *Cloudlet {
	return &Cloudlet{
		ID:             id,
		RequiredCores:  requiredCores,
		Length:         length,
		OriginalLength: length,
		FileSizeIn:     fileSizeIn,
		FileSizeOut:    fileSizeOut,
		ArrivalTime:    arrivalTime,
		Status:         StatusWaiting,
		VMID:           -1,
		HostID:         -1,
	}
}

// RemainingLength returns the instructions still to execute.
func (c *Cloudlet) RemainingLength() float64 {
	return c.OriginalLength - c.FinishedLength
}

// ResetForReschedule returns a cloudlet to Waiting, detaching it from its VM
// and crediting whatever work has already finished, per spec §4.4 "VM
// destruction and rescheduling".
func (c *Cloudlet) ResetForReschedule(now int64) {
	c.Status = StatusWaiting
	c.VMID = -1
	c.HostID = -1
	c.Length = c.RemainingLength()
	c.SubmissionDelay = 0
	c.ArrivalTime = now
	c.ExecStartTime = 0
}
