package ippsrv

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

type JobID int32

// JobState represents the state of a job.
// https://datatracker.ietf.org/doc/html/rfc8011#section-5.3.7
type JobState int32

const (
	JobPending JobState = iota + 3
	JobPendingHeld
	JobProcessing
	JobProcessingStopped
	JobCancelled
	JobAborted
	JobCompleted
)

var jobStateNames = map[JobState]string{
	JobPending:           "pending",
	JobPendingHeld:       "pending-held",
	JobProcessing:        "processing",
	JobProcessingStopped: "processing-stopped",
	JobCancelled:         "canceled",
	JobAborted:           "aborted",
	JobCompleted:         "completed",
}

func (s JobState) String() string {
	if name, ok := jobStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("JobState(%d)", int32(s))
}

func parseJobState(s string) (JobState, bool) {
	for st, name := range jobStateNames {
		if name == s {
			return st, true
		}
	}
	return 0, false
}

// IsTerminal reports whether the job is done, successfully or not.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobCancelled || s == JobAborted
}

// fsm events for job state transitions.
const (
	jobEvtProcess  = "process"
	jobEvtComplete = "complete"
	jobEvtAbort    = "abort"
	jobEvtCancel   = "cancel"
)

/*
https://datatracker.ietf.org/doc/html/rfc8011#page-128

	                                  +----> canceled
	                                 /
	---> pending -----> processing -+------> completed
	        \                        \
	         +-----> canceled         +----> aborted
*/

var jobFsmEvts = []fsm.EventDesc{
	{
		Name: jobEvtProcess,
		Src:  []string{JobPending.String()},
		Dst:  JobProcessing.String(),
	},
	{
		Name: jobEvtComplete,
		Src:  []string{JobProcessing.String()},
		Dst:  JobCompleted.String(),
	},
	{
		Name: jobEvtAbort, // event args: JobStateReason...
		Src:  []string{JobPending.String(), JobProcessing.String()},
		Dst:  JobAborted.String(),
	},
	{
		Name: jobEvtCancel, // event args: JobStateReason...
		Src:  []string{JobPending.String(), JobProcessing.String()},
		Dst:  JobCancelled.String(),
	},
}

// JobStateReason represents the reason for the current job state.
// https://datatracker.ietf.org/doc/html/rfc8011#section-5.3.8
type JobStateReason string

const (
	JSRNone                     JobStateReason = "none"
	JSRJobIncoming              JobStateReason = "job-incoming"
	JSRJobQueued                JobStateReason = "job-queued"
	JSRJobTransforming          JobStateReason = "job-transforming"
	JSRJobPrinting              JobStateReason = "job-printing"
	JSRJobCancelledByUser       JobStateReason = "job-canceled-by-user"
	JSRAbortedBySystem          JobStateReason = "aborted-by-system"
	JSRDocumentFormatError      JobStateReason = "document-format-error"
	JSRServiceOffline           JobStateReason = "service-offline"
	JSRJobCompletedSuccessfully JobStateReason = "job-completed-successfully"
)

// defaultReasons are set when an event carries no reasons.
var defaultReasons = map[JobState]JobStateReason{
	JobPending:    JSRJobQueued,
	JobProcessing: JSRJobPrinting,
	JobCompleted:  JSRJobCompletedSuccessfully,
	JobAborted:    JSRAbortedBySystem,
	JobCancelled:  JSRJobCancelledByUser,
}

// Job is a print job.  Exported fields are set at creation and don't change.
type Job struct {
	ID         JobID
	UUID       uuid.UUID
	Printer    *Printer
	Name       string
	Username   string
	Format     string // document-format
	Size       int    // document size in bytes
	Created    time.Time
	JobURI     string // i.e. "ipp://localhost:6310/printers/default/3"
	PrinterURI string

	mu           sync.RWMutex
	state        JobState
	stateReasons []JobStateReason
	processing   time.Time
	completed    time.Time

	sm     *fsm.FSM
	ctx    context.Context // cancelled by Cancel-Job
	cancel context.CancelFunc
}

// createJobFromRequest creates a new Job from the Print-Job request.
func createJobFromRequest(p *Printer, id JobID, req *goipp.Message, size int) (*Job, error) {
	printerURI, err := extractValue[goipp.String](req.Operation, "printer-uri")
	if err != nil {
		return nil, fmt.Errorf("failed to extract printer-uri: %w", err)
	}
	return createJob(p, id, string(printerURI),
		stringAttr(req.Operation, "job-name", fmt.Sprintf("Job-%d", id)),
		stringAttr(req.Operation, "requesting-user-name", "anonymous"),
		stringAttr(req.Operation, "document-format", ippOctetStream),
		size,
	), nil
}

func createJob(p *Printer, id JobID, printerURI, name, username, format string, size int) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:           id,
		UUID:         uuid.New(),
		Printer:      p,
		Name:         name,
		Username:     username,
		Format:       format,
		Size:         size,
		Created:      time.Now(),
		JobURI:       fmt.Sprintf("%s/%d", printerURI, id),
		PrinterURI:   printerURI,
		state:        JobPending,
		stateReasons: []JobStateReason{JSRJobIncoming},
		ctx:          ctx,
		cancel:       cancel,
	}
	job.sm = makeJobFSM(job)
	return job
}

func makeJobFSM(j *Job) *fsm.FSM {
	lg := slog.With("job_id", j.ID, "job_name", j.Name, "printer", j.Printer.Name())
	return fsm.NewFSM(
		JobPending.String(),
		jobFsmEvts,
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				st, ok := parseJobState(e.Dst)
				if !ok {
					lg.ErrorContext(ctx, "unknown job state", "state", e.Dst)
					return
				}
				j.setState(st, reasonsFromArgs(e.Args...))
				lg.InfoContext(ctx, "job state changed", "from", e.Src, "to", e.Dst, "event", e.Event)
			},
		},
	)
}

func (j *Job) setState(st JobState, reasons []JobStateReason) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(reasons) == 0 {
		reasons = []JobStateReason{defaultReasons[st]}
	}
	j.state = st
	j.stateReasons = reasons
	switch {
	case st == JobProcessing:
		j.processing = time.Now()
	case st.IsTerminal():
		j.completed = time.Now()
	}
}

// event triggers the job state transition.
func (j *Job) event(ctx context.Context, name string, reasons ...JobStateReason) error {
	args := make([]any, len(reasons))
	for i, r := range reasons {
		args[i] = r
	}
	return j.sm.Event(ctx, name, args...)
}

func reasonsFromArgs(args ...any) []JobStateReason {
	reasons := make([]JobStateReason, 0, len(args))
	for _, arg := range args {
		if reason, ok := arg.(JobStateReason); ok {
			reasons = append(reasons, reason)
		} else {
			slog.Warn("invalid argument for job state reason", "arg", arg)
		}
	}
	return reasons
}

// State returns the current job state.
func (j *Job) State() JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// StateReasons returns the reasons of the current state.
func (j *Job) StateReasons() []JobStateReason {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]JobStateReason(nil), j.stateReasons...)
}

// Times returns the processing and completion times, zero if not reached.
func (j *Job) Times() (processing, completed time.Time) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.processing, j.completed
}

func (j *Job) IsCompleted() bool {
	return j.State().IsTerminal()
}

// statusAttributes are returned by Print-Job.
func (j *Job) statusAttributes() goipp.Attributes {
	var attrs goipp.Attributes
	a := adder(&attrs)
	a("job-id", goipp.TagInteger, goipp.Integer(j.ID))
	a("job-uri", goipp.TagURI, goipp.String(j.JobURI))
	a("job-state", goipp.TagEnum, goipp.Integer(j.State()))
	a("job-state-reasons", goipp.TagKeyword, stringsToValues(j.StateReasons())...)
	return attrs
}

// attributes returns the job description attributes.
// https://datatracker.ietf.org/doc/html/rfc8011#section-5.3
func (j *Job) attributes() goipp.Attributes {
	processing, completed := j.Times()
	p := j.Printer

	// time-at-* attributes are printer up-times.
	upTime := func(t time.Time) []goipp.Value {
		if t.IsZero() {
			return nil
		}
		return []goipp.Value{goipp.Integer(p.upTimeAt(t))}
	}
	dateTime := func(t time.Time) []goipp.Value {
		if t.IsZero() {
			return nil
		}
		return []goipp.Value{goipp.Time{Time: t}}
	}

	attrs := j.statusAttributes()
	a := adder(&attrs)
	a("job-uuid", goipp.TagURI, goipp.String(j.UUID.URN()))
	a("job-name", goipp.TagName, goipp.String(j.Name))
	a("job-printer-uri", goipp.TagURI, goipp.String(j.PrinterURI))
	a("job-originating-user-name", goipp.TagName, goipp.String(j.Username))
	a("document-format", goipp.TagMimeType, goipp.String(j.Format))
	a("job-k-octets", goipp.TagInteger, goipp.Integer((j.Size+1023)/1024))
	a("time-at-creation", goipp.TagInteger, upTime(j.Created)...)
	a("time-at-processing", goipp.TagInteger, upTime(processing)...)
	a("time-at-completed", goipp.TagInteger, upTime(completed)...)
	a("date-time-at-creation", goipp.TagDateTime, dateTime(j.Created)...)
	a("date-time-at-processing", goipp.TagDateTime, dateTime(processing)...)
	a("date-time-at-completed", goipp.TagDateTime, dateTime(completed)...)
	a("job-printer-up-time", goipp.TagInteger, goipp.Integer(p.UpTime()))
	return attrs
}
