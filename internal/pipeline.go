package internal

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// Phase identifies which pipeline stage completed a file, for progress
// reporting.
type Phase int

const (
	PhasePlan Phase = iota + 1
	PhaseMove
)

// Runner drives the two-phase pipeline: fan the scanned files out across a
// worker pool to produce destination plans, drain it, then fan a smaller
// pool out over the plans to execute the moves. Phase 2 never starts before
// phase 1 has drained, so a file's plan always completes before its move is
// scheduled.
type Runner struct {
	Planner  *Planner
	Executor *Executor
	Stats    *Stats
	Manifest *Manifest // optional
	Log      *logrus.Logger

	Workers   int // plan pool size; 0 sizes it from the file count
	IOWorkers int // move pool size; 0 derives it from the plan pool

	DryRun bool

	// OnPhaseStart is called before each phase with the number of items it
	// will process. OnFileDone is called once per item per phase, from
	// worker goroutines.
	OnPhaseStart func(Phase, int)
	OnFileDone   func(Phase)
}

// defaultPlanWorkers sizes the phase-1 pool in proportion to the file set,
// with a fixed ceiling.
func defaultPlanWorkers(files int) int {
	w := files/100 + 1
	if w < 4 {
		w = 4
	}
	if w > 32 {
		w = 32
	}
	return w
}

// Run processes the file set to completion and returns the final snapshot.
// Cancelling ctx stops the submission of new work promptly; in-flight files
// still reach a terminal state, and the snapshot reflects exactly those.
func (r *Runner) Run(ctx context.Context, files []MediaFile) Snapshot {
	planWorkers := r.Workers
	if planWorkers <= 0 {
		planWorkers = defaultPlanWorkers(len(files))
	}
	ioWorkers := r.IOWorkers
	if ioWorkers <= 0 {
		ioWorkers = planWorkers
		if ioWorkers > 8 {
			ioWorkers = 8
		}
	}

	plans := r.planPhase(ctx, files, planWorkers)
	r.Log.Debugf("phase 1 done: %d plans from %d files", len(plans), len(files))

	r.movePhase(ctx, plans, ioWorkers)
	return r.Stats.Snapshot()
}

// planPhase fans the files out over the plan pool and gathers the valid
// plans in completion order.
func (r *Runner) planPhase(ctx context.Context, files []MediaFile, workers int) []*Plan {
	var mu sync.Mutex
	plans := make([]*Plan, 0, len(files))

	if r.OnPhaseStart != nil {
		r.OnPhaseStart(PhasePlan, len(files))
	}
	p := pool.New().WithMaxGoroutines(workers)
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		f := f
		p.Go(func() {
			plan, err := r.Planner.Plan(ctx, f)
			switch {
			case err == nil:
				mu.Lock()
				plans = append(plans, plan)
				mu.Unlock()
			case errors.Is(err, ErrSourceVanished), errors.Is(err, ErrDuplicate), errors.Is(err, ErrAlreadyOrganized):
				r.Stats.Skipped()
				r.Log.Debugf("skipped %s: %v", f.Name, err)
				if r.Manifest != nil {
					r.Manifest.LogSkipped(f.Path, err.Error())
				}
			default:
				r.Stats.Failed()
				perr := CategorizeError(f.Path, ErrorCategoryPlanning, err)
				r.Log.Errorf("planning failed: %v", perr)
				if r.Manifest != nil {
					r.Manifest.LogFailed(perr)
				}
			}
			if r.OnFileDone != nil {
				r.OnFileDone(PhasePlan)
			}
		})
	}
	p.Wait()
	return plans
}

// movePhase executes the plans over the smaller I/O pool.
func (r *Runner) movePhase(ctx context.Context, plans []*Plan, workers int) {
	if r.OnPhaseStart != nil {
		r.OnPhaseStart(PhaseMove, len(plans))
	}
	p := pool.New().WithMaxGoroutines(workers)
	for _, plan := range plans {
		if ctx.Err() != nil {
			break
		}
		plan := plan
		p.Go(func() {
			r.executeOne(plan)
			if r.OnFileDone != nil {
				r.OnFileDone(PhaseMove)
			}
		})
	}
	p.Wait()
}

func (r *Runner) executeOne(plan *Plan) {
	if r.DryRun {
		r.Log.Infof("[dry-run] would move %s -> %s", plan.Source, plan.Dest)
		r.Stats.Moved(plan.Size)
		return
	}

	dest, err := r.Executor.Execute(plan)
	switch {
	case err == nil:
		r.Stats.Moved(plan.Size)
		r.Log.Infof("moved: %s -> %s", plan.Source, dest)
		if r.Manifest != nil {
			r.Manifest.LogMoved(plan.Source, dest, plan.DateFolder, plan.Size)
		}
	case errors.Is(err, ErrSourceVanished), errors.Is(err, ErrDuplicate):
		r.Stats.Skipped()
		r.Log.Warnf("skipped %s: %v", plan.Source, err)
		if r.Manifest != nil {
			r.Manifest.LogSkipped(plan.Source, err.Error())
		}
	default:
		r.Stats.Failed()
		perr := CategorizeError(plan.Source, ErrorCategoryMove, err)
		r.Log.Errorf("move failed: %v", perr)
		if r.Manifest != nil {
			r.Manifest.LogFailed(perr)
		}
	}
}
