// Package scheduler runs named periodic jobs on a cron trigger with a small
// worker pool. A job that is still running when its next tick fires is
// skipped, and a panicking job is converted to an error instead of taking
// the process down.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"racebot/pkg/logx"
)

type Config struct {
	Workers        int
	QueueSize      int
	DefaultTimeout time.Duration
	Timezone       string
}

// Job is a periodic unit of work. Every must be positive; Timeout zero means
// the service default applies.
type Job struct {
	Name    string
	Every   time.Duration
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type queuedJob struct {
	job        Job
	enqueuedAt time.Time
	state      *runState
}

// runState gates overlapping runs of the same job.
type runState struct {
	mu      sync.Mutex
	running bool
}

func (r *runState) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *runState) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

type Service struct {
	mu   sync.Mutex
	cfg  Config
	log  logx.Logger
	jobs []Job

	c      *cron.Cron
	q      chan queuedJob
	stopCh chan struct{}
	wg     sync.WaitGroup

	states map[string]*runState
}

func New(cfg Config, log logx.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 5 * time.Minute
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		states: map[string]*runState{},
	}
}

// AddInterval registers a periodic job. Registration after Start takes effect
// on the next Start.
func (s *Service) AddInterval(job Job) error {
	if strings.TrimSpace(job.Name) == "" {
		return fmt.Errorf("scheduler: job name is required")
	}
	if job.Every <= 0 {
		return fmt.Errorf("scheduler: job %q: interval must be positive", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("scheduler: job %q: run func is required", job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Name == job.Name {
			return fmt.Errorf("scheduler: job %q already registered", job.Name)
		}
	}
	s.jobs = append(s.jobs, job)
	s.states[job.Name] = &runState{}
	return nil
}

// Start is idempotent; a second call while running is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}

	loc := s.loadLocationLocked()
	s.c = cron.New(cron.WithLocation(loc))
	s.q = make(chan queuedJob, s.cfg.QueueSize)
	s.stopCh = make(chan struct{})

	for i := range s.jobs {
		job := s.jobs[i]
		state := s.states[job.Name]
		spec := fmt.Sprintf("@every %s", job.Every)
		if _, err := s.c.AddFunc(spec, func() { s.enqueue(job, state) }); err != nil {
			s.log.Error("job registration failed", logx.String("job", job.Name), logx.Err(err))
		}
	}

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	s.c.Start()
	s.log.Info("scheduler started",
		logx.String("tz", loc.String()),
		logx.Int("jobs", len(s.jobs)),
		logx.Int("workers", s.cfg.Workers))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	stopCh := s.stopCh
	s.c = nil
	s.stopCh = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	close(stopCh)
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to UTC", logx.String("tz", tz), logx.Err(err))
		return time.UTC
	}
	return loc
}

func (s *Service) enqueue(job Job, state *runState) {
	// Overlap gating happens at enqueue time so a slow job cannot pile up
	// queue entries behind itself.
	if !state.tryAcquire() {
		s.log.Debug("job still running, tick skipped", logx.String("job", job.Name))
		return
	}
	s.mu.Lock()
	q := s.q
	s.mu.Unlock()
	if q == nil {
		state.release()
		return
	}
	select {
	case q <- queuedJob{job: job, enqueuedAt: time.Now(), state: state}:
	default:
		state.release()
		s.log.Warn("job queue full, tick dropped", logx.String("job", job.Name))
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	s.mu.Lock()
	stopCh := s.stopCh
	q := s.q
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case qj, ok := <-q:
			if !ok {
				return
			}
			s.execOne(ctx, qj)
		}
	}
}

func (s *Service) execOne(ctx context.Context, qj queuedJob) {
	defer qj.state.release()

	start := time.Now()
	timeout := qj.job.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
				s.log.Error("job panicked",
					logx.String("job", qj.job.Name),
					logx.Any("panic", r),
					logx.String("stack", string(debug.Stack())))
			}
		}()
		err = qj.job.Run(runCtx)
	}()

	dur := time.Since(start)
	if err != nil {
		s.log.Warn("job failed", logx.String("job", qj.job.Name), logx.Err(err), logx.Duration("dur", dur))
		return
	}
	s.log.Debug("job completed", logx.String("job", qj.job.Name), logx.Duration("dur", dur))
}
