package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/survaize/survaize-client/internal/domain"
)

// ErrJobStarted is returned when Run is called on a job that already left
// the idle state. Every submission needs a fresh Job.
var ErrJobStarted = errors.New("job already started")

// legalTransitions is the single-job lifecycle. Terminal states have no
// outgoing edges.
var legalTransitions = map[domain.JobState][]domain.JobState{
	domain.JobIdle:           {domain.JobSubmitting, domain.JobAwaitingStream},
	domain.JobSubmitting:     {domain.JobAwaitingStream, domain.JobFailed},
	domain.JobAwaitingStream: {domain.JobStreaming, domain.JobFailed},
	domain.JobStreaming:      {domain.JobSucceeded, domain.JobFailed},
}

// Transition records one state change of a job.
type Transition struct {
	From domain.JobState
	To   domain.JobState
	At   time.Time
}

// Job is one run of the submit/track state machine. It produces exactly one
// outcome; once settled every later event is ignored.
type Job struct {
	client *Client

	mu          sync.RWMutex
	state       domain.JobState
	handle      domain.JobHandle
	transitions []Transition
	settled     bool
	result      *domain.Questionnaire
	err         error
}

// NewJob returns an idle job bound to the client.
func (c *Client) NewJob() *Job {
	return &Job{client: c, state: domain.JobIdle}
}

// State returns the current lifecycle state.
func (j *Job) State() domain.JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Handle returns the server-side job handle, empty before submission succeeded.
func (j *Job) Handle() domain.JobHandle {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.handle
}

// Transitions returns a copy of the state changes so far.
func (j *Job) Transitions() []Transition {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Transition, len(j.transitions))
	copy(out, j.transitions)
	return out
}

// Outcome returns the terminal result, or nils while the job is running.
func (j *Job) Outcome() (*domain.Questionnaire, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result, j.err
}

// Settled reports whether the job produced its outcome.
func (j *Job) Settled() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.settled
}

// Run submits the file, waits for the server-side task to register and
// tracks the job to its outcome.
func (j *Job) Run(ctx context.Context, name string, r io.Reader, onProgress domain.ProgressFunc) (*domain.Questionnaire, error) {
	if err := j.advance(domain.JobSubmitting); err != nil {
		return nil, ErrJobStarted
	}

	handle, err := j.client.Submit(ctx, name, r)
	if err != nil {
		j.settle(nil, err)
		return nil, err
	}
	j.mu.Lock()
	j.handle = handle
	j.mu.Unlock()

	if err := sleepContext(ctx, j.client.opts.StartupDelay); err != nil {
		err = fmt.Errorf("track canceled: %w", err)
		j.settle(nil, err)
		return nil, err
	}

	if err := j.advance(domain.JobAwaitingStream); err != nil {
		return nil, err
	}
	return j.client.track(ctx, j, onProgress)
}

// advance moves the job to the next state. Illegal transitions are rejected.
func (j *Job) advance(to domain.JobState) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.advanceLocked(to)
}

func (j *Job) advanceLocked(to domain.JobState) error {
	for _, next := range legalTransitions[j.state] {
		if next == to {
			j.transitions = append(j.transitions, Transition{From: j.state, To: to, At: time.Now()})
			j.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal job transition %s -> %s", j.state, to)
}

// settle records the outcome. It returns false if the job was already settled.
func (j *Job) settle(q *domain.Questionnaire, err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.settled {
		return false
	}
	j.settled = true
	j.result = q
	j.err = err

	to := domain.JobSucceeded
	if err != nil {
		to = domain.JobFailed
	}
	if advErr := j.advanceLocked(to); advErr != nil {
		// a success that bypassed streaming is recorded as a failure
		j.result = nil
		j.err = advErr
		if j.state != domain.JobFailed {
			_ = j.advanceLocked(domain.JobFailed)
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
