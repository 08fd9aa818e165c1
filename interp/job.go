package interp

import "sync"

// JobState is a BackgroundJob's lifecycle state (spec.md §4.5, "job
// table").
type JobState uint8

const (
	JobRunning JobState = iota
	JobStopped
	JobDone
	JobEmpty // slot is free for reuse
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "Running"
	case JobStopped:
		return "Stopped"
	case JobDone:
		return "Done"
	default:
		return "Empty"
	}
}

// BackgroundJob is one entry in the JobTable.
type BackgroundJob struct {
	Slot     int
	PID      int // process-group id (first child's pid)
	State    JobState
	Command  string
	Status   int
	Disowned bool
	disownHUP bool
}

// JobTable tracks background/stopped pipelines, with earliest-Empty-slot
// reuse (spec.md §4.5 and §5, "JobTable mutex-protected with slot reuse").
type JobTable struct {
	mu   sync.Mutex
	jobs []*BackgroundJob
}

func NewJobTable() *JobTable { return &JobTable{} }

// Add inserts a new running job, reusing the earliest Empty slot if one
// exists, otherwise appending.
func (t *JobTable) Add(pid int, command string) *BackgroundJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.State == JobEmpty {
			j.PID, j.Command, j.State, j.Disowned, j.Status = pid, command, JobRunning, false, 0
			j.disownHUP = false
			return j
		}
	}
	j := &BackgroundJob{Slot: len(t.jobs) + 1, PID: pid, Command: command, State: JobRunning}
	t.jobs = append(t.jobs, j)
	return j
}

// List returns a snapshot of every non-Empty job, in slot order.
func (t *JobTable) List() []*BackgroundJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*BackgroundJob, 0, len(t.jobs))
	for _, j := range t.jobs {
		if j.State != JobEmpty {
			out = append(out, j)
		}
	}
	return out
}

// Resolve finds a job by 1-based slot number, or the most recently added
// non-Empty job when slot <= 0.
func (t *JobTable) Resolve(slot int) (*BackgroundJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot > 0 {
		for _, j := range t.jobs {
			if j.Slot == slot && j.State != JobEmpty {
				return j, true
			}
		}
		return nil, false
	}
	for i := len(t.jobs) - 1; i >= 0; i-- {
		if t.jobs[i].State != JobEmpty {
			return t.jobs[i], true
		}
	}
	return nil, false
}

// MarkDone transitions a job to Done with the given status. The slot stays
// Done, and is not reused, until Free makes it Empty.
func (t *JobTable) MarkDone(slot, status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.Slot == slot {
			j.State, j.Status = JobDone, status
			return
		}
	}
}

// Free releases a job's slot for reuse.
func (t *JobTable) Free(slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.Slot == slot {
			j.State = JobEmpty
			return
		}
	}
}

// Disown implements `disown [-h]`: plain disown frees the slot outright;
// `-h` keeps it tracked but marks it to survive a SIGHUP broadcast.
func (t *JobTable) Disown(slot int, hup bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.Slot == slot {
			if hup {
				j.disownHUP = true
			} else {
				j.State = JobEmpty
			}
			j.Disowned = true
			return
		}
	}
}

// EachSurviving calls fn for every running/stopped job not marked to
// survive HUP, used by the SIGHUP broadcast handler.
func (t *JobTable) EachSurviving(fn func(j *BackgroundJob)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if (j.State == JobRunning || j.State == JobStopped) && !j.disownHUP {
			fn(j)
		}
	}
}
