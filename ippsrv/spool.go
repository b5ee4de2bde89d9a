package ippsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const (
	jobRetention = 24 * time.Hour // completed jobs are kept for Get-Jobs
	queueSize    = 100
)

var (
	errJobAlreadyExists = errors.New("job already exists")
	errJobNotFound      = errors.New("job not found")
	errJobFinished      = errors.New("job is already finished")
	errSpoolFull        = errors.New("spool queue is full")
	errSpoolClosed      = errors.New("spool is closed")
)

// spool keeps the submitted documents and the rendered command streams in a
// directory, and prints queued jobs one at a time.  Files are named after
// the job UUID: <uuid>.doc is the document, <uuid>.prn the command stream.
type spool struct {
	dir     string
	tempDir bool // remove the directory on Close
	lastID  atomic.Int32

	queue  chan *Job
	stop   chan struct{}
	wg     sync.WaitGroup
	closed bool

	mu   sync.Mutex
	jobs map[JobID]*Job
}

func newSpool(spoolDir string) (*spool, error) {
	var temp bool
	if spoolDir == "" {
		var err error
		spoolDir, err = os.MkdirTemp("", "ipp-spool")
		if err != nil {
			return nil, fmt.Errorf("failed to create temporary spool directory: %w", err)
		}
		temp = true
		slog.Info("using temporary spool directory", "dir", spoolDir)
	} else {
		slog.Info("using specified spool directory", "dir", spoolDir)
		if err := os.MkdirAll(spoolDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create spool directory %s: %w", spoolDir, err)
		}
	}
	sp := &spool{
		dir:     spoolDir,
		tempDir: temp,
		jobs:    make(map[JobID]*Job),
		queue:   make(chan *Job, queueSize),
		stop:    make(chan struct{}),
	}
	sp.wg.Add(1)
	go sp.worker()
	return sp, nil
}

// NextID returns a new job ID.
func (s *spool) NextID() JobID {
	return JobID(s.lastID.Add(1))
}

func (s *spool) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	slog.Debug("closing spool", "dir", s.dir)
	if s.tempDir {
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("failed to remove spool directory %s: %w", s.dir, err)
		}
	}
	slog.Info("spool closed", "dir", s.dir)
	return nil
}

func (s *spool) worker() {
	defer s.wg.Done()
	slog.Debug("spool worker started", "dir", s.dir)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.drain()
			slog.Debug("spool worker stopped")
			return
		case job := <-s.queue:
			s.process(job)
		case <-ticker.C:
			s.mu.Lock()
			s.pruneLocked(time.Now())
			s.mu.Unlock()
		}
	}
}

// drain aborts the jobs left in the queue.
func (s *spool) drain() {
	for {
		select {
		case job := <-s.queue:
			if err := job.event(context.Background(), jobEvtAbort, JSRServiceOffline); err != nil {
				slog.Debug("job not aborted", "job_id", job.ID, "error", err)
			}
		default:
			return
		}
	}
}

// process renders and prints the job.
func (s *spool) process(job *Job) {
	ctx := job.ctx
	lg := slog.With("job_id", job.ID, "printer", job.Printer.Name())
	if err := job.event(ctx, jobEvtProcess); err != nil {
		// cancelled while queued
		lg.Debug("job skipped", "state", job.State(), "error", err)
		return
	}
	p := job.Printer
	p.SetState(PSProcessing)
	defer p.SetState(PSIdle)

	if err := s.print(ctx, job); err != nil {
		if ctx.Err() != nil {
			lg.Info("job cancelled during processing", "error", err)
			return
		}
		lg.Error("job failed", "error", err)
		reason := JSRAbortedBySystem
		if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrEmptyData) {
			reason = JSRDocumentFormatError
		}
		if err := job.event(ctx, jobEvtAbort, reason); err != nil {
			lg.Error("failed to abort the job", "error", err)
		}
		return
	}
	if err := job.event(ctx, jobEvtComplete); err != nil {
		lg.Warn("failed to complete the job", "error", err)
	}
}

func (s *spool) print(ctx context.Context, job *Job) error {
	docFile := s.docPath(job)
	data, err := os.ReadFile(docFile)
	if err != nil {
		return err
	}
	defer os.Remove(docFile)

	out, err := job.Printer.Render(ctx, data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.outputPath(job), out, 0o644); err != nil {
		return fmt.Errorf("failed to save the command stream: %w", err)
	}
	return job.Printer.Driver().Write(ctx, out)
}

func (s *spool) pruneLocked(now time.Time) {
	for jobID, job := range s.jobs {
		_, completed := job.Times()
		if job.IsCompleted() && now.Sub(completed) > jobRetention {
			slog.Info("removing old job", "job_id", jobID, "created_at", job.Created)
			if err := s.removeJobLocked(jobID); err != nil {
				slog.Error("failed to remove old job", "job_id", jobID, "error", err)
			}
		}
	}
}

func (s *spool) removeJobLocked(jobID JobID) error {
	job, ok := s.jobs[jobID]
	if !ok {
		return errJobNotFound
	}
	for _, name := range []string{s.docPath(job), s.outputPath(job)} {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove job file %s: %w", name, err)
		}
	}
	delete(s.jobs, jobID)
	return nil
}

func (s *spool) docPath(job *Job) string {
	return filepath.Join(s.dir, job.UUID.String()+".doc")
}

func (s *spool) outputPath(job *Job) string {
	return filepath.Join(s.dir, job.UUID.String()+".prn")
}

// AddJob stores the document and queues the job.
func (s *spool) AddJob(job *Job, data []byte) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	if job.Printer == nil {
		return errors.New("job printer cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSpoolClosed
	}
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("failed to add job %d: %w", job.ID, errJobAlreadyExists)
	}
	if err := os.WriteFile(s.docPath(job), data, 0o644); err != nil {
		return fmt.Errorf("failed to write job data: %w", err)
	}
	select {
	case s.queue <- job:
	default:
		os.Remove(s.docPath(job))
		return errSpoolFull
	}
	s.jobs[job.ID] = job
	slog.Info("job added", "job_id", job.ID, "printer", job.Printer.Name(), "uuid", job.UUID, "size", len(data))
	return nil
}

// CancelJob cancels a pending or processing job.
func (s *spool) CancelJob(ctx context.Context, jobID JobID) error {
	job, err := s.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.IsCompleted() {
		return errJobFinished
	}
	if err := job.event(ctx, jobEvtCancel, JSRJobCancelledByUser); err != nil {
		return fmt.Errorf("%w: %w", errJobFinished, err)
	}
	job.cancel()
	return nil
}

func (s *spool) GetJob(jobID JobID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errJobNotFound
	}
	return job, nil
}

// Output returns the command stream rendered for the job.
func (s *spool) Output(jobID JobID) ([]byte, error) {
	job, err := s.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(s.outputPath(job))
}

// GetJobs returns the jobs of the printer, ordered by ID.
func (s *spool) GetJobs(prnID string) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []*Job
	for _, job := range s.jobs {
		if job.Printer.Name() == prnID {
			jobs = append(jobs, job)
		}
	}
	slices.SortFunc(jobs, func(a, b *Job) int { return int(a.ID - b.ID) })
	return jobs
}

// GetJobCount returns the number of queued and processing jobs.
func (s *spool) GetJobCount(prnID string) int {
	var n int
	for _, job := range s.GetJobs(prnID) {
		if !job.IsCompleted() {
			n++
		}
	}
	return n
}
