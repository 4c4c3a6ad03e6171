package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateJob is returned when a job id is submitted while a job with the same id is running.
var ErrDuplicateJob = errors.New("job is already running")

type Job interface {
	ID() string
	Run(ctx context.Context) error
}

// Func adapts a function to a Job.
type Func struct {
	Name string
	Fn   func(ctx context.Context) error
}

func (f Func) ID() string {
	return f.Name
}

func (f Func) Run(ctx context.Context) error {
	return f.Fn(ctx)
}

// Runner runs independent jobs with bounded concurrency.
// A failing job does not stop the others.
type Runner struct {
	limit       int
	runningJobs mapset.Set[string]
	muJobs      sync.Mutex
}

// NewRunner creates a runner; a limit below 1 means no limit.
func NewRunner(limit int) *Runner {
	return &Runner{
		limit:       limit,
		runningJobs: mapset.NewThreadUnsafeSet[string](),
	}
}

// Run executes every job and returns the joined errors of the failed ones.
// Jobs not yet started when ctx is cancelled fail with the context error.
func (r *Runner) Run(ctx context.Context, jobs ...Job) error {
	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}

	var mu sync.Mutex
	var errs []error
	fail := func(job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, fmt.Errorf("%s: %w", job.ID(), err))
	}

	for _, job := range jobs {
		if !r.acquire(job.ID()) {
			fail(job, ErrDuplicateJob)
			continue
		}

		g.Go(func() error {
			defer r.release(job.ID())

			if err := ctx.Err(); err != nil {
				fail(job, err)
				return nil
			}

			logrus.Debugf("job %s started", job.ID())
			if err := job.Run(ctx); err != nil {
				logrus.Errorf("job %s failed: %v", job.ID(), err)
				fail(job, err)
				return nil
			}
			logrus.Debugf("job %s done", job.ID())

			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}

// Running reports whether a job with the given id is in flight.
func (r *Runner) Running(id string) bool {
	r.muJobs.Lock()
	defer r.muJobs.Unlock()

	return r.runningJobs.Contains(id)
}

func (r *Runner) acquire(id string) bool {
	r.muJobs.Lock()
	defer r.muJobs.Unlock()

	return r.runningJobs.Add(id)
}

func (r *Runner) release(id string) {
	r.muJobs.Lock()
	defer r.muJobs.Unlock()

	r.runningJobs.Remove(id)
}
