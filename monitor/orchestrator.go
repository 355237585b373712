package monitor

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"price_radar/models"
	"price_radar/storage"
)

// Runner is what the Orchestrator drives per monitor. Production uses
// *Pipeline; tests use a counting fake.
type Runner interface {
	Run(ctx context.Context, m *models.Monitor) (*RunStats, error)
}

// Orchestrator fans a scheduler tick out over the monitors that are due. Each
// monitor runs in its own goroutine and records its own outcome, so one
// failure never touches its siblings.
type Orchestrator struct {
	store  storage.Store
	runner Runner
}

func NewOrchestrator(store storage.Store, runner Runner) *Orchestrator {
	return &Orchestrator{store: store, runner: runner}
}

type batchOutcome struct {
	monitorID uuid.UUID
	err       error
}

// RunBatch runs every active monitor of the given frequency tier whose last
// run is old enough. Returns how many monitors succeeded and failed.
func (o *Orchestrator) RunBatch(ctx context.Context, frequencyMinutes int) (succeeded, failed int) {
	monitors, err := o.store.GetDueMonitors(ctx, frequencyMinutes)
	if err != nil {
		log.Printf("Orchestrator: failed to load due monitors (tier %dm): %v", frequencyMinutes, err)
		return 0, 0
	}
	if len(monitors) == 0 {
		return 0, 0
	}

	log.Printf("Orchestrator: tier %dm: %d monitors due", frequencyMinutes, len(monitors))

	outcomes := make(chan batchOutcome, len(monitors))
	var wg sync.WaitGroup
	for i := range monitors {
		m := monitors[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.runOne(ctx, &m)
			outcomes <- batchOutcome{monitorID: m.ID, err: err}
		}()
	}
	wg.Wait()
	close(outcomes)

	for out := range outcomes {
		if out.err != nil {
			failed++
			log.Printf("Orchestrator: monitor %s failed: %v", out.monitorID, out.err)
		} else {
			succeeded++
		}
	}

	log.Printf("Orchestrator: tier %dm completed: %d succeeded, %d failed", frequencyMinutes, succeeded, failed)
	return succeeded, failed
}

// RunOne runs a single monitor on demand. Missing monitors return
// storage.ErrNotFound; paused or errored ones ErrNotActive.
func (o *Orchestrator) RunOne(ctx context.Context, id uuid.UUID) (*RunStats, error) {
	m, err := o.store.GetMonitorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, storage.ErrNotFound
	}
	return o.runOne(ctx, m)
}

// runOne executes the pipeline and records the outcome on the monitor row.
// Outcome write failures are logged, not returned: the run's own result wins.
func (o *Orchestrator) runOne(ctx context.Context, m *models.Monitor) (*RunStats, error) {
	stats, runErr := o.runner.Run(ctx, m)

	// A rejected run never executed, so it leaves no outcome on the row:
	// flipping a paused monitor to error would be lying about what happened.
	if errors.Is(runErr, ErrNotActive) {
		return stats, runErr
	}

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := o.store.UpdateMonitorRunOutcome(ctx, m.ID, runErr == nil, msg); err != nil {
		log.Printf("Orchestrator: failed to record outcome for monitor %s: %v", m.ID, err)
	}

	return stats, runErr
}
