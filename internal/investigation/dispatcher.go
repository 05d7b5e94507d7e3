package investigation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrShuttingDown is returned by Submit after Shutdown has begun
var ErrShuttingDown = errors.New("investigation dispatcher is shutting down")

// Dispatcher runs investigations in the background so webhook ingestion and
// API handlers return immediately. Each submitted run gets its own
// goroutine; in-flight runs are tracked so shutdown can drain them.
type Dispatcher struct {
	orchestrator *Orchestrator
	timeout      time.Duration

	mu       sync.Mutex
	wg       sync.WaitGroup
	draining bool

	// OnFailure, when set, observes terminal investigation failures.
	// ErrAlreadyInvestigating is not a failure and is not reported.
	OnFailure func(incidentUUID string, err error)

	// OnSuccess, when set, observes completed runs
	OnSuccess func(result *Result)
}

// NewDispatcher creates a Dispatcher. timeout bounds each investigation
// run; zero means 5 minutes.
func NewDispatcher(orchestrator *Orchestrator, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Dispatcher{
		orchestrator: orchestrator,
		timeout:      timeout,
	}
}

// Submit starts a background investigation for the incident and returns
// immediately. The run's outcome is logged; failures additionally go to
// OnFailure.
func (d *Dispatcher) Submit(incidentUUID string) error {
	return d.dispatch(incidentUUID, d.orchestrator.Investigate)
}

// SubmitClaimed starts a background run for an incident that already holds
// the investigation claim
func (d *Dispatcher) SubmitClaimed(incidentUUID string) error {
	return d.dispatch(incidentUUID, d.orchestrator.InvestigateClaimed)
}

func (d *Dispatcher) dispatch(incidentUUID string, investigate func(context.Context, string) (*Result, error)) error {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return ErrShuttingDown
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		result, err := investigate(ctx, incidentUUID)
		if err != nil {
			if errors.Is(err, ErrAlreadyInvestigating) {
				log.Printf("Skipped investigation for incident %s: already in progress", incidentUUID)
				return
			}
			log.Printf("Background investigation failed for incident %s: %v", incidentUUID, err)
			if d.OnFailure != nil {
				d.OnFailure(incidentUUID, err)
			}
			return
		}
		log.Printf("Background investigation completed for incident %s: %d hypotheses",
			incidentUUID, len(result.Hypotheses))
		if d.OnSuccess != nil {
			d.OnSuccess(result)
		}
	}()

	return nil
}

// Shutdown stops accepting new work and waits for in-flight investigations
// to finish, up to the context deadline
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.draining = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
